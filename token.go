package logoff

// TokenKind identifies which of the OAuth2 tokens a revocation targets.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

// Hint returns the RFC 7009 token_type_hint value for the kind.
func (k TokenKind) Hint() string {
	switch k {
	case RefreshToken:
		return "refresh_token"
	default:
		return "access_token"
	}
}

func (k TokenKind) String() string {
	switch k {
	case RefreshToken:
		return "refresh token"
	default:
		return "access token"
	}
}

// TokenSet is the set of tokens a relying party holds for a user. An empty
// field means the token is absent.
type TokenSet struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// TokenStore gives read access to the tokens currently held for the user.
// The core never writes to it; clearing happens through a FlowResetter.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	IDToken() string
}

// StaticTokens returns a TokenStore that always reports the given set.
func StaticTokens(ts TokenSet) TokenStore {
	return staticTokens{ts: ts}
}

type staticTokens struct {
	ts TokenSet
}

func (s staticTokens) AccessToken() string  { return s.ts.AccessToken }
func (s staticTokens) RefreshToken() string { return s.ts.RefreshToken }
func (s staticTokens) IDToken() string      { return s.ts.IDToken }

// TokenValue selects the token a revocation call acts on: either one
// explicitly supplied by the caller, or whatever the TokenStore currently
// holds for the kind being revoked.
type TokenValue struct {
	value    string
	supplied bool
}

// Stored selects the token held in the TokenStore.
var Stored = TokenValue{}

// Supplied selects an explicit token, which need not be known to the store.
// An empty token is the same as Stored.
func Supplied(token string) TokenValue {
	if token == "" {
		return Stored
	}
	return TokenValue{value: token, supplied: true}
}

// IsSupplied reports whether the value carries an explicit token.
func (v TokenValue) IsSupplied() bool {
	return v.supplied
}

// resolve returns the token to act on for kind. The result may be empty if
// nothing is stored.
func (v TokenValue) resolve(kind TokenKind, store TokenStore) string {
	switch {
	case v.supplied:
		return v.value
	case kind == RefreshToken:
		return store.RefreshToken()
	default:
		return store.AccessToken()
	}
}
