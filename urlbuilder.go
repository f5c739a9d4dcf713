package logoff

import (
	"net/url"

	"github.com/pardot/logoff/discovery"
	"golang.org/x/oauth2"
)

var _ URLBuilder = (*MetadataURLBuilder)(nil)

// MetadataURLBuilder builds requests from a provider's discovery metadata.
type MetadataURLBuilder struct {
	Metadata *discovery.ProviderMetadata

	ClientID string
	// ClientSecret is only sent in the body when AuthStyle is
	// oauth2.AuthStyleInParams, otherwise the HTTPPoster sends it.
	ClientSecret string
	AuthStyle    oauth2.AuthStyle

	// PostLogoutRedirectURL is where the provider should send the user after
	// the session is ended. It must be registered with the provider.
	PostLogoutRedirectURL string
	// State is passed through the end session endpoint to the post logout
	// redirect.
	State string
	// EndSessionParams are added to every end session URL.
	EndSessionParams url.Values
}

// RevocationBody returns token=...&token_type_hint=...&client_id=...
func (b *MetadataURLBuilder) RevocationBody(kind TokenKind, token string) url.Values {
	v := url.Values{}
	v.Set("token", token)
	v.Set("token_type_hint", kind.Hint())
	if b.ClientID != "" {
		v.Set("client_id", b.ClientID)
	}
	if b.ClientSecret != "" && b.AuthStyle == oauth2.AuthStyleInParams {
		v.Set("client_secret", b.ClientSecret)
	}
	return v
}

func (b *MetadataURLBuilder) RevocationEndpoint() (string, error) {
	if b.Metadata == nil || b.Metadata.RevocationEndpoint == "" {
		return "", ErrNoRevocationEndpoint
	}
	return b.Metadata.RevocationEndpoint, nil
}

// EndSessionURL returns the RP-initiated logout URL. Query parameters already
// on the endpoint are kept.
//
// https://openid.net/specs/openid-connect-rpinitiated-1_0.html#RPLogout
func (b *MetadataURLBuilder) EndSessionURL(idTokenHint string) (string, bool) {
	if b.Metadata == nil || b.Metadata.EndSessionEndpoint == "" {
		return "", false
	}

	u, err := url.Parse(b.Metadata.EndSessionEndpoint)
	if err != nil {
		return "", false
	}

	q := u.Query()
	for k, vs := range b.EndSessionParams {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if idTokenHint != "" {
		q.Set("id_token_hint", idTokenHint)
	}
	if b.PostLogoutRedirectURL != "" {
		q.Set("post_logout_redirect_uri", b.PostLogoutRedirectURL)
	}
	if b.State != "" {
		q.Set("state", b.State)
	}
	u.RawQuery = q.Encode()

	return u.String(), true
}
