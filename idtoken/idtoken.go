// Package idtoken reads the claims of a previously issued ID token that a
// relying party needs at logout time.
package idtoken

import (
	"fmt"

	"github.com/go-jose/go-jose/v3/jwt"
)

// Hint is the part of an ID token used to correlate logout requests with the
// session it was issued for.
type Hint struct {
	// Issuer of the token
	Issuer string `json:"iss,omitempty"`
	// Subject the token was issued to
	Subject string `json:"sub,omitempty"`
	// Audience of the token, containing the client ID
	Audience jwt.Audience `json:"aud,omitempty"`
	// Expiry of the token. Hints are still usable after expiry.
	Expiry *jwt.NumericDate `json:"exp,omitempty"`
	// SessionID is the OP session this token belongs to. It is only present
	// if the OP supports front or back channel logout with sessions.
	//
	// https://openid.net/specs/openid-connect-frontchannel-1_0.html#ClaimsContents
	SessionID string `json:"sid,omitempty"`
}

// ParseHint reads the claims from a raw ID token without verifying its
// signature. The token must have been verified when it was received; at
// logout it is only used as an opaque hint and for session correlation.
func ParseHint(raw string) (*Hint, error) {
	tok, err := jwt.ParseSigned(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing id token: %v", err)
	}

	h := &Hint{}
	if err := tok.UnsafeClaimsWithoutVerification(h); err != nil {
		return nil, fmt.Errorf("reading id token claims: %v", err)
	}

	return h, nil
}

// Matches reports whether a logout request for the given issuer and session
// ID refers to the session this hint was issued for. An empty sid matches
// any session of the issuer.
func (h *Hint) Matches(issuer, sid string) bool {
	if issuer != "" && issuer != h.Issuer {
		return false
	}
	return sid == "" || sid == h.SessionID
}
