package logoff

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

var _ Poster = (*HTTPPoster)(nil)

// maxResponseBody bounds how much of a revocation response is read. The
// endpoint is expected to answer with an empty body.
const maxResponseBody = 1 << 20

// HTTPPoster sends revocation requests over HTTP, authenticating the client
// as described in RFC 7009 section 2.1.
type HTTPPoster struct {
	// Client is used to make requests. If nil, http.DefaultClient is used.
	Client *http.Client

	// ClientID and ClientSecret authenticate confidential clients. Public
	// clients leave ClientSecret empty.
	ClientID     string
	ClientSecret string
	// AuthStyle selects how a confidential client authenticates.
	// AuthStyleAutoDetect and AuthStyleInHeader both use HTTP basic auth;
	// with AuthStyleInParams the URLBuilder carries the secret in the body.
	AuthStyle oauth2.AuthStyle
}

// Post sends req. Only 2xx responses are returned without error, anything
// else is parsed into an *oauth2.RevocationError or *HTTPError.
func (p *HTTPPoster) Post(ctx context.Context, req *RevocationRequest) (*Response, error) {
	if req.Endpoint == "" {
		return nil, ErrNoRevocationEndpoint
	}

	hreq, err := http.NewRequest(http.MethodPost, req.Endpoint, strings.NewReader(req.Body.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating revocation request: %v", err)
	}
	hreq = hreq.WithContext(ctx)

	ct := req.ContentType
	if ct == "" {
		ct = FormContentType
	}
	hreq.Header.Set("Content-Type", ct)

	if p.ClientSecret != "" && p.AuthStyle != oauth2.AuthStyleInParams {
		hreq.SetBasicAuth(url.QueryEscape(p.ClientID), url.QueryEscape(p.ClientSecret))
	}

	hc := p.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("posting to revocation endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading revocation response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseRevocationError(resp, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
