// Package discovery retrieves an OIDC provider's metadata, including the
// revocation and session management endpoints used at logout.
//
// https://openid.net/specs/openid-connect-discovery-1_0.html
package discovery
