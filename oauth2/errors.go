package oauth2

import "fmt"

// ErrorCode is the type of error an authorization server returns
type ErrorCode string

// https://tools.ietf.org/html/rfc6749#section-5.2 and
// https://tools.ietf.org/html/rfc7009#section-2.2.1
// nolint:unused
const (
	// ErrorCodeInvalidRequest: The request is missing a required parameter,
	// includes an unsupported parameter value, repeats a parameter, includes
	// multiple credentials, utilizes more than one mechanism for
	// authenticating the client, or is otherwise malformed.
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
	// ErrorCodeInvalidClient: Client authentication failed (e.g., unknown
	// client, no client authentication included, or unsupported
	// authentication method). The authorization server MAY return an HTTP 401
	// (Unauthorized) status code to indicate which HTTP authentication
	// schemes are supported.
	ErrorCodeInvalidClient ErrorCode = "invalid_client"
	// ErrorCodeUnauthorizedClient: The authenticated client is not
	// authorized to use this endpoint.
	ErrorCodeUnauthorizedClient ErrorCode = "unauthorized_client"
	// ErrorCodeUnsupportedTokenType: The authorization server does not
	// support the revocation of the presented token type. That is, the client
	// tried to revoke an access token on a server not supporting this
	// feature.
	ErrorCodeUnsupportedTokenType ErrorCode = "unsupported_token_type"
	// ErrorCodeServerError: The server encountered an unexpected condition.
	ErrorCodeServerError ErrorCode = "server_error"
	// ErrorCodeTemporarilyUnavailable: The server is currently unable to
	// handle the request due to a temporary overloading or maintenance.
	ErrorCodeTemporarilyUnavailable ErrorCode = "temporarily_unavailable"
)

// RevocationError represents an error returned from calling the revocation
// endpoint.
//
// https://tools.ietf.org/html/rfc7009#section-2.2.1
type RevocationError struct {
	// ErrorCode indicates the type of error that occurred
	ErrorCode ErrorCode `json:"error,omitempty"`
	// Description: OPTIONAL. Human-readable ASCII text providing additional
	// information, used to assist the client developer in understanding the
	// error that occurred.
	Description string `json:"error_description,omitempty"`
	// ErrorURI: OPTIONAL. A URI identifying a human-readable web page with
	// information about the error.
	ErrorURI string `json:"error_uri,omitempty"`
	// WWWAuthenticate is set when an invalid_client error is returned, and
	// that response indicates the authentication scheme to be used by the
	// client
	WWWAuthenticate string `json:"-"`
	// RetryAfter is the raw Retry-After header of a 503 response
	RetryAfter string `json:"-"`
}

// Error returns a string representing this error
func (r *RevocationError) Error() string {
	str := fmt.Sprintf("%s error in revocation request", r.ErrorCode)
	if r.Description != "" {
		str = fmt.Sprintf("%s: %s", str, r.Description)
	}
	if r.RetryAfter != "" {
		str = fmt.Sprintf("%s (retry after %s)", str, r.RetryAfter)
	}
	return str
}
