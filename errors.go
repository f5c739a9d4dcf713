package logoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pardot/logoff/oauth2"
)

var (
	// ErrNoToken is the cause when there is no token to revoke.
	ErrNoToken = errors.New("no token to revoke")
	// ErrNoRevocationEndpoint is the cause when the provider advertises no
	// revocation endpoint.
	ErrNoRevocationEndpoint = errors.New("provider has no revocation endpoint")
)

// RevocationError is returned when revoking a token failed, either in
// transport or at the server. Reason says which step failed.
type RevocationError struct {
	Reason string
	Cause  error
}

func (r *RevocationError) Error() string {
	return fmt.Sprintf("%s revocation failed: %v", r.Reason, r.Cause)
}

func (r *RevocationError) Unwrap() error {
	return r.Cause
}

// HTTPError indicates the revocation endpoint answered with a non-2xx status
// that was not a well formed OAuth2 error. It exposes the returned response
// and body.
type HTTPError struct {
	Response *http.Response
	Body     []byte
}

func (h *HTTPError) Error() string {
	return fmt.Sprintf("http status %s: %s", h.Response.Status, string(h.Body))
}

// parseRevocationError turns a non-2xx response into the first match of:
// * an oauth2.RevocationError if the response was 400 or 401 and the body
// holds a correctly formatted error
// * an HTTPError otherwise
func parseRevocationError(resp *http.Response, body []byte) error {
	herr := &HTTPError{
		Response: resp,
		Body:     body,
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		rerr := &oauth2.RevocationError{}
		if err := json.Unmarshal(body, rerr); err != nil || rerr.ErrorCode == "" {
			// not formatted correctly/non-standard, treat as HTTP
			return herr
		}
		rerr.WWWAuthenticate = resp.Header.Get("www-authenticate")
		return rerr
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		// RFC 7009 section 2.2.1: the server may ask the client to back off
		// with a Retry-After header. Retrying is left to the caller.
		rerr := &oauth2.RevocationError{}
		if err := json.Unmarshal(body, rerr); err == nil && rerr.ErrorCode != "" {
			rerr.RetryAfter = resp.Header.Get("retry-after")
			return rerr
		}
	}

	return herr
}
