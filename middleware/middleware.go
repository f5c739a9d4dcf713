package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"github.com/pardot/logoff"
	"github.com/pardot/logoff/discovery"
	"github.com/pardot/logoff/idtoken"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	defaultSessionName = "oidc-middleware"

	sessionKeyOIDCAccessToken        = "oidc-access-token"
	sessionKeyOIDCRefreshToken       = "oidc-refresh-token"
	sessionKeyOIDCIDToken            = "oidc-id-token"
	sessionKeyOIDCServerStateChanged = "oidc-server-state-changed"
)

// Handler logs users of a web relying party out, revoking their tokens and
// ending their session at the OIDC provider. Tokens are kept in a cookie
// session, put there with SaveTokens by whatever performed the login.
type Handler struct {
	// Issuer is the URL to the OIDC issuer
	Issuer string
	// ClientID is a client ID for the relying party
	ClientID string
	// ClientSecret is a client secret for the relying party. Empty for
	// public clients.
	ClientSecret string
	// AuthStyle selects how the client authenticates to the revocation
	// endpoint. The zero value uses HTTP basic auth.
	AuthStyle oauth2.AuthStyle
	// PostLogoutRedirectURL is registered with the issuer, and is where the
	// issuer sends the user after ending their session there.
	PostLogoutRedirectURL string
	// LoggedOutURL is where the user is sent when only the local session was
	// cleared.
	LoggedOutURL string
	// Revoke makes Logout revoke the session's tokens before logging off.
	Revoke bool

	// SessionAuthenticationKey is a 32 or 64 byte random key used to
	// authenticate the session.
	SessionAuthenticationKey []byte
	// SessionEncryptionKey is a 16, 24 or 32 byte random key used to encrypt
	// the session. If nil, the session is not encrypted.
	SessionEncryptionKey []byte
	// SessionName is a name used for the session. If empty, a default session
	// name is used.
	SessionName string
	// SessionOptions sets the session cookie's attributes. If nil, the
	// gorilla/sessions defaults are used. Browsers only send the cookie to
	// FrontChannelLogout, which the issuer loads in a cross-site iframe, when
	// it is SameSite=None and Secure.
	SessionOptions *sessions.Options

	// HTTPClient is used for discovery and revocation. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	// PrometheusRegistry, if set, receives the logoff counters.
	PrometheusRegistry prometheus.Registerer

	metadata   *discovery.ProviderMetadata
	metadataMu sync.Mutex

	sessionStore   sessions.Store
	sessionStoreMu sync.Mutex
}

// SaveTokens stores the user's tokens in their session, and clears any
// previously observed server session change.
func (h *Handler) SaveTokens(w http.ResponseWriter, r *http.Request, tokens logoff.TokenSet) error {
	session := h.getSession(r)

	session.Values[sessionKeyOIDCAccessToken] = tokens.AccessToken
	session.Values[sessionKeyOIDCRefreshToken] = tokens.RefreshToken
	session.Values[sessionKeyOIDCIDToken] = tokens.IDToken
	delete(session.Values, sessionKeyOIDCServerStateChanged)

	return sessions.Save(r, w)
}

// TokensFromRequest returns the tokens held in the request's session.
func (h *Handler) TokensFromRequest(r *http.Request) logoff.TokenSet {
	st := newSessionState(h.getSession(r))
	return logoff.TokenSet{
		AccessToken:  st.AccessToken(),
		RefreshToken: st.RefreshToken(),
		IDToken:      st.IDToken(),
	}
}

// Logout returns a handler that logs the user off. If the issuer session is
// still the one we know about the user is redirected to the issuer's end
// session endpoint, otherwise to LoggedOutURL. A session without tokens is
// logged off without revocation. A failed revocation leaves the session
// intact and responds with 502.
func (h *Handler) Logout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := h.getSession(r)

		o, err := h.orchestrator(ctx, session)
		if err != nil {
			h.logger().WithError(err).Error("failed to set up logoff")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var redirected bool
		sink := logoff.HandoffFunc(func(_ context.Context, u string) error {
			if err := sessions.Save(r, w); err != nil {
				return err
			}
			redirected = true
			http.Redirect(w, r, u, http.StatusSeeOther)
			return nil
		})

		if h.Revoke {
			err = o.RevokeAndLogoff(ctx, sink)
			if errors.Is(err, logoff.ErrNoToken) {
				// nothing left to revoke, e.g. an expired or empty session
				h.logger().WithError(err).Debug("logout without tokens to revoke")
				err = o.Logoff(ctx, sink)
			}
		} else {
			err = o.Logoff(ctx, sink)
		}
		if err != nil {
			var rerr *logoff.RevocationError
			if errors.As(err, &rerr) {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if redirected {
			return
		}

		if err := sessions.Save(r, w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, h.loggedOutURL(), http.StatusSeeOther)
	})
}

// FrontChannelLogout returns a handler for the issuer's front-channel logout
// request. When the request's iss and sid match the user's ID token, the
// session is marked as changed on the server, so a later Logout only clears
// local state.
//
// https://openid.net/specs/openid-connect-frontchannel-1_0.html#RPLogout
func (h *Handler) FrontChannelLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store")
		w.Header().Set("Pragma", "no-cache")

		session := h.getSession(r)

		raw, _ := session.Values[sessionKeyOIDCIDToken].(string)
		if raw == "" {
			return
		}

		hint, err := idtoken.ParseHint(raw)
		if err != nil {
			h.logger().WithError(err).Warn("front-channel logout: unreadable id token in session")
			return
		}

		q := r.URL.Query()
		if !hint.Matches(q.Get("iss"), q.Get("sid")) {
			h.logger().WithField("sid", q.Get("sid")).Debug("front-channel logout for another session")
			return
		}

		session.Values[sessionKeyOIDCServerStateChanged] = true
		if err := sessions.Save(r, w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func (h *Handler) orchestrator(ctx context.Context, session *sessions.Session) (*logoff.Orchestrator, error) {
	md, err := h.getMetadata(ctx)
	if err != nil {
		return nil, err
	}

	st := newSessionState(session)

	return logoff.New(logoff.Config{
		Tokens:   st,
		Resetter: st,
		Monitor:  st,
		URLs: &logoff.MetadataURLBuilder{
			Metadata:              md,
			ClientID:              h.ClientID,
			ClientSecret:          h.ClientSecret,
			AuthStyle:             h.AuthStyle,
			PostLogoutRedirectURL: h.PostLogoutRedirectURL,
		},
		Poster: &logoff.HTTPPoster{
			Client:       h.HTTPClient,
			ClientID:     h.ClientID,
			ClientSecret: h.ClientSecret,
			AuthStyle:    h.AuthStyle,
		},
		// the handler always passes its own sink
		Navigator:          &logoff.EchoNavigator{Out: io.Discard},
		Logger:             h.logger(),
		PrometheusRegistry: h.PrometheusRegistry,
	})
}

func (h *Handler) getSession(r *http.Request) *sessions.Session {
	sessionName := h.SessionName
	if sessionName == "" {
		sessionName = defaultSessionName
	}

	h.sessionStoreMu.Lock()
	defer h.sessionStoreMu.Unlock()

	if h.sessionStore == nil {
		cs := sessions.NewCookieStore(h.SessionAuthenticationKey, h.SessionEncryptionKey)
		if h.SessionOptions != nil {
			opts := *h.SessionOptions
			cs.Options = &opts
		}
		h.sessionStore = cs
	}

	// Get returns a new session alongside any decode error
	session, _ := h.sessionStore.Get(r, sessionName)
	return session
}

func (h *Handler) getMetadata(ctx context.Context) (*discovery.ProviderMetadata, error) {
	h.metadataMu.Lock()
	defer h.metadataMu.Unlock()

	if h.metadata != nil {
		return h.metadata, nil
	}

	var opts []discovery.ClientOpt
	if h.HTTPClient != nil {
		opts = append(opts, discovery.WithHTTPClient(h.HTTPClient))
	}

	cl, err := discovery.NewClient(ctx, h.Issuer, opts...)
	if err != nil {
		return nil, err
	}
	h.metadata = cl.Metadata()

	return h.metadata, nil
}

func (h *Handler) loggedOutURL() string {
	if h.LoggedOutURL != "" {
		return h.LoggedOutURL
	}
	return "/"
}

func (h *Handler) logger() logrus.FieldLogger {
	if h.Logger != nil {
		return h.Logger
	}
	l := logrus.New()
	l.Out = io.Discard
	return l
}
