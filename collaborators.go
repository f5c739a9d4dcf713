package logoff

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
)

// FormContentType is the only content type revocation requests are sent with.
const FormContentType = "application/x-www-form-urlencoded"

// RevocationRequest is a single POST to the revocation endpoint. It is built
// per call and never persisted.
type RevocationRequest struct {
	Endpoint    string
	Body        url.Values
	ContentType string
}

// Response is the raw answer from the revocation endpoint.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Poster sends revocation requests. Any returned error is treated as a failed
// revocation; any response is treated as success.
type Poster interface {
	Post(ctx context.Context, req *RevocationRequest) (*Response, error)
}

// URLBuilder knows the authorization server's endpoints and how requests to
// them are encoded.
type URLBuilder interface {
	// RevocationBody returns the form body revoking token of the given kind.
	RevocationBody(kind TokenKind, token string) url.Values
	// RevocationEndpoint returns the URL of the RFC 7009 endpoint.
	RevocationEndpoint() (string, error)
	// EndSessionURL returns the URL that ends the server session for the
	// given id token hint. ok is false when the server has no end session
	// endpoint.
	EndSessionURL(idTokenHint string) (u string, ok bool)
}

// SessionMonitor reports whether the authorization server's session has
// diverged from the one this client last observed.
type SessionMonitor interface {
	ServerStateChanged() bool
}

// FlowResetter clears all local authorization and session state. It must be
// idempotent.
type FlowResetter interface {
	ResetLocalSession()
}

// ResetFunc adapts a plain function to a FlowResetter.
type ResetFunc func()

func (f ResetFunc) ResetLocalSession() { f() }

// StateFlag is a SessionMonitor driven by whatever observes the server
// session, e.g. a front-channel logout handler. It is safe for concurrent
// use.
type StateFlag struct {
	changed atomic.Bool
}

var _ SessionMonitor = (*StateFlag)(nil)

// MarkChanged records that the server session no longer matches ours.
func (s *StateFlag) MarkChanged() { s.changed.Store(true) }

// Clear forgets a previous change, e.g. after a fresh login.
func (s *StateFlag) Clear() { s.changed.Store(false) }

func (s *StateFlag) ServerStateChanged() bool { return s.changed.Load() }

type unchangedMonitor struct{}

func (unchangedMonitor) ServerStateChanged() bool { return false }
