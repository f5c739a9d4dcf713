package middleware

import (
	"github.com/gorilla/sessions"
	"github.com/pardot/logoff"
)

var (
	_ logoff.TokenStore     = (*sessionState)(nil)
	_ logoff.FlowResetter   = (*sessionState)(nil)
	_ logoff.SessionMonitor = (*sessionState)(nil)
)

// sessionState exposes one request's cookie session to the logoff flow. The
// caller saves the session afterwards.
type sessionState struct {
	session *sessions.Session
	// captured up front, the reset removes the flag from the session
	changed bool
}

func newSessionState(s *sessions.Session) *sessionState {
	changed, _ := s.Values[sessionKeyOIDCServerStateChanged].(bool)
	return &sessionState{session: s, changed: changed}
}

func (s *sessionState) value(key string) string {
	v, _ := s.session.Values[key].(string)
	return v
}

func (s *sessionState) AccessToken() string  { return s.value(sessionKeyOIDCAccessToken) }
func (s *sessionState) RefreshToken() string { return s.value(sessionKeyOIDCRefreshToken) }
func (s *sessionState) IDToken() string      { return s.value(sessionKeyOIDCIDToken) }

func (s *sessionState) ServerStateChanged() bool { return s.changed }

func (s *sessionState) ResetLocalSession() {
	for _, k := range []string{
		sessionKeyOIDCAccessToken,
		sessionKeyOIDCRefreshToken,
		sessionKeyOIDCIDToken,
		sessionKeyOIDCServerStateChanged,
	} {
		delete(s.session.Values, k)
	}
	// expire the cookie
	s.session.Options.MaxAge = -1
}
