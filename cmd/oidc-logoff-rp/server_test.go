package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pardot/logoff/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

func TestServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := &middleware.Handler{
		Issuer:                   "http://127.0.0.1:1",
		ClientID:                 "client-id",
		SessionAuthenticationKey: []byte("super-secret-key"),
	}

	svr, err := newServer(h, reg, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		Name       string
		Method     string
		Path       string
		Form       url.Values
		WantStatus int
		WantBody   string
	}{
		{Name: "home", Method: http.MethodGet, Path: "/", WantStatus: http.StatusOK, WantBody: "Store tokens"},
		{Name: "login without token", Method: http.MethodPost, Path: "/login", WantStatus: http.StatusBadRequest},
		{Name: "login", Method: http.MethodPost, Path: "/login", Form: url.Values{"access_token": {"a1"}}, WantStatus: http.StatusSeeOther},
		{Name: "logout needs POST", Method: http.MethodGet, Path: "/logout", WantStatus: http.StatusMethodNotAllowed},
		{Name: "not found", Method: http.MethodGet, Path: "/nope", WantStatus: http.StatusNotFound},
		{Name: "metrics", Method: http.MethodGet, Path: "/metrics", WantStatus: http.StatusOK, WantBody: "http_requests_total"},
	} {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			var body io.Reader
			if tc.Form != nil {
				body = strings.NewReader(tc.Form.Encode())
			}
			req := httptest.NewRequest(tc.Method, tc.Path, body)
			if tc.Form != nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			rec := httptest.NewRecorder()

			svr.ServeHTTP(rec, req)

			if rec.Code != tc.WantStatus {
				t.Errorf("want status %d, got %d: %s", tc.WantStatus, rec.Code, rec.Body.String())
			}
			if tc.WantBody != "" && !strings.Contains(rec.Body.String(), tc.WantBody) {
				t.Errorf("want body containing %q, got %s", tc.WantBody, rec.Body.String())
			}
		})
	}
}
