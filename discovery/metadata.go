package discovery

import (
	"fmt"
	"strings"
)

// ProviderMetadata is the subset of an OIDC provider's discovery document a
// relying party needs to revoke tokens and end sessions.
//
// https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type ProviderMetadata struct {
	// REQUIRED. The Issuer Identifier. It MUST be identical to the iss Claim
	// value in ID Tokens issued from this Issuer.
	Issuer string `json:"issuer,omitempty"`
	// REQUIRED. URL of the OP's OAuth 2.0 Authorization Endpoint.
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	// URL of the OP's OAuth 2.0 Token Endpoint.
	TokenEndpoint string `json:"token_endpoint,omitempty"`
	// URL of the OP's JSON Web Key Set document.
	JWKSURI string `json:"jwks_uri,omitempty"`

	// OPTIONAL. URL of the authorization server's OAuth 2.0 revocation
	// endpoint.
	//
	// https://tools.ietf.org/html/rfc8414#section-2
	RevocationEndpoint string `json:"revocation_endpoint,omitempty"`
	// OPTIONAL. Client authentication methods supported by the revocation
	// endpoint. If omitted, the default is client_secret_basic.
	RevocationEndpointAuthMethodsSupported []string `json:"revocation_endpoint_auth_methods_supported,omitempty"`

	// REQUIRED for RP-initiated logout. URL at the OP to which an RP can
	// perform a redirect to request that the End-User be logged out at the
	// OP.
	//
	// https://openid.net/specs/openid-connect-rpinitiated-1_0.html#OPMetadata
	EndSessionEndpoint string `json:"end_session_endpoint,omitempty"`
	// REQUIRED for session management. URL of an OP iframe that supports
	// cross-origin communications for session state information with the RP
	// Client, using the HTML5 postMessage API.
	//
	// https://openid.net/specs/openid-connect-session-1_0.html#OPMetadata
	CheckSessionIframe string `json:"check_session_iframe,omitempty"`

	// OPTIONAL. Whether the OP supports HTTP-based front-channel logout.
	//
	// https://openid.net/specs/openid-connect-frontchannel-1_0.html#OPLogout
	FrontchannelLogoutSupported bool `json:"frontchannel_logout_supported,omitempty"`
	// OPTIONAL. Whether the OP passes iss and sid query parameters to
	// identify the RP session with the OP when the frontchannel_logout_uri is
	// used.
	FrontchannelLogoutSessionSupported bool `json:"frontchannel_logout_session_supported,omitempty"`
	// OPTIONAL. Whether the OP supports back-channel logout.
	BackchannelLogoutSupported bool `json:"backchannel_logout_supported,omitempty"`
	// OPTIONAL. Whether the OP can pass a sid Claim in the Logout Token to
	// identify the RP session with the OP.
	BackchannelLogoutSessionSupported bool `json:"backchannel_logout_session_supported,omitempty"`

	// RECOMMENDED. JSON array containing a list of the OAuth 2.0 scope
	// values that this server supports.
	ScopesSupported []string `json:"scopes_supported,omitempty"`
	// OPTIONAL. Client authentication methods supported by the token
	// endpoint. If omitted, the default is client_secret_basic.
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
}

// SupportsRevocationAuthMethod reports whether the revocation endpoint
// accepts the given client authentication method.
func (p *ProviderMetadata) SupportsRevocationAuthMethod(method string) bool {
	methods := p.RevocationEndpointAuthMethodsSupported
	if len(methods) == 0 {
		methods = []string{"client_secret_basic"}
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func (p *ProviderMetadata) validate(issuer string) error {
	var errs []string

	if p.Issuer == "" {
		errs = append(errs, "Issuer is required")
	} else if strings.TrimSuffix(p.Issuer, "/") != strings.TrimSuffix(issuer, "/") {
		errs = append(errs, fmt.Sprintf("Issuer %q does not match requested issuer %q", p.Issuer, issuer))
	}

	if p.AuthorizationEndpoint == "" {
		errs = append(errs, "AuthorizationEndpoint is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid provider metadata: %s", strings.Join(errs, ", "))
	}
	return nil
}
