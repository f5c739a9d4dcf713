package main

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pardot/logoff"
	"github.com/pardot/logoff/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type server struct {
	oidc *middleware.Handler
}

// newServer routes the example pages and the logoff handlers, counting
// requests on reg and writing an access log to accessLog.
func newServer(h *middleware.Handler, reg *prometheus.Registry, accessLog io.Writer) (http.Handler, error) {
	s := &server{oidc: h}

	requestCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Count of all HTTP requests.",
	}, []string{"handler", "code", "method"})

	if err := reg.Register(requestCounter); err != nil {
		return nil, fmt.Errorf("server: Failed to register Prometheus HTTP metrics: %v", err)
	}

	instrumentHandlerCounter := func(handlerName string, handler http.Handler) http.HandlerFunc {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, w, r)
			requestCounter.With(prometheus.Labels{"handler": handlerName, "code": strconv.Itoa(m.Code), "method": r.Method}).Inc()
		})
	}

	r := mux.NewRouter()
	handle := func(p string, h http.Handler, methods ...string) {
		r.Handle(p, instrumentHandlerCounter(p, h)).Methods(methods...)
	}

	handle("/", http.HandlerFunc(s.home), http.MethodGet)
	handle("/login", http.HandlerFunc(s.login), http.MethodPost)
	handle("/logout", h.Logout(), http.MethodPost)
	handle("/frontchannel_logout", h.FrontChannelLogout(), http.MethodGet)
	handle("/logged-out", http.HandlerFunc(s.loggedOut), http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)

	return handlers.CombinedLoggingHandler(accessLog, r), nil
}

const homePage = `<!DOCTYPE html>
<html>
	<head>
		<meta charset="UTF-8">
		<title>LOG OFF</title>
	</head>
	<body>
		{{ if .signed_in }}
		<h1>Signed in</h1>
		<p>access token: {{ .access_token }}</p>
		<p>refresh token: {{ .has_refresh }}</p>
		<form action="/logout" method="POST">
			<input type="submit" value="Log off">
		</form>
		{{ else }}
		<h1>Store tokens</h1>
		<form action="/login" method="POST">
			<p><input name="access_token" placeholder="access token"></p>
			<p><input name="refresh_token" placeholder="refresh token"></p>
			<p><input name="id_token" placeholder="id token"></p>
			<input type="submit" value="Submit">
		</form>
		{{ end }}
	</body>
</html>`

var homeTmpl = template.Must(template.New("homePage").Parse(homePage))

func (s *server) home(w http.ResponseWriter, req *http.Request) {
	tokens := s.oidc.TokensFromRequest(req)

	tmplData := map[string]interface{}{
		"signed_in":    tokens.AccessToken != "",
		"access_token": tokens.AccessToken,
		"has_refresh":  tokens.RefreshToken != "",
	}

	if err := homeTmpl.Execute(w, tmplData); err != nil {
		http.Error(w, fmt.Sprintf("failed to render template: %v", err), http.StatusInternalServerError)
		return
	}
}

// login stores tokens obtained elsewhere, standing in for a code flow.
func (s *server) login(w http.ResponseWriter, req *http.Request) {
	tokens := logoff.TokenSet{
		AccessToken:  req.FormValue("access_token"),
		RefreshToken: req.FormValue("refresh_token"),
		IDToken:      req.FormValue("id_token"),
	}
	if tokens.AccessToken == "" {
		http.Error(w, "access_token is required", http.StatusBadRequest)
		return
	}

	if err := s.oidc.SaveTokens(w, req, tokens); err != nil {
		http.Error(w, fmt.Sprintf("failed to save session: %v", err), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, req, "/", http.StatusSeeOther)
}

func (s *server) loggedOut(w http.ResponseWriter, req *http.Request) {
	_, _ = w.Write([]byte("Logged out. <a href=\"/\">Home</a>"))
}
