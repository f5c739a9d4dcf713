package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const oidcwk = "/.well-known/openid-configuration"

// Client holds the provider metadata retrieved for an issuer.
//
// It should be created via `NewClient` to ensure it is initialized correctly.
type Client struct {
	md *ProviderMetadata

	hc *http.Client
}

// ClientOpt is an option that can configure a client
type ClientOpt func(c *Client)

// WithHTTPClient will set a http.Client for the discovery request. If not set,
// http.DefaultClient will be used.
func WithHTTPClient(hc *http.Client) func(c *Client) {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient will initialize a Client, performing the initial discovery.
func NewClient(ctx context.Context, issuer string, opts ...ClientOpt) (*Client, error) {
	c := &Client{
		md: &ProviderMetadata{},
		hc: http.DefaultClient,
	}

	for _, o := range opts {
		o(c)
	}

	wk := strings.TrimSuffix(issuer, "/") + oidcwk

	req, err := http.NewRequest(http.MethodGet, wk, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %v", wk, err)
	}

	mdr, err := c.hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %v", wk, err)
	}
	defer mdr.Body.Close()

	if mdr.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching %s: http status %s", wk, mdr.Status)
	}

	if err := json.NewDecoder(mdr.Body).Decode(c.md); err != nil {
		return nil, fmt.Errorf("error decoding provider metadata response: %v", err)
	}

	if err := c.md.validate(issuer); err != nil {
		return nil, err
	}

	return c, nil
}

// Metadata returns the ProviderMetadata that was retrieved when the client was
// instantiated
func (c *Client) Metadata() *ProviderMetadata {
	return c.md
}
