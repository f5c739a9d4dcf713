package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDiscovery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var issuer string
	m := http.NewServeMux()
	m.HandleFunc(oidcwk, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/auth",
			"token_endpoint":         issuer + "/token",
			"revocation_endpoint":    issuer + "/revoke",
			"end_session_endpoint":   issuer + "/logout",
			"check_session_iframe":   issuer + "/check",

			"frontchannel_logout_supported":         true,
			"frontchannel_logout_session_supported": true,
		})
	})
	ts := httptest.NewServer(m)
	defer ts.Close()
	issuer = ts.URL

	cli, err := NewClient(ctx, ts.URL+"/")
	if err != nil {
		t.Fatalf("failed to create discovery client: %v", err)
	}

	want := &ProviderMetadata{
		Issuer:                             issuer,
		AuthorizationEndpoint:              issuer + "/auth",
		TokenEndpoint:                      issuer + "/token",
		RevocationEndpoint:                 issuer + "/revoke",
		EndSessionEndpoint:                 issuer + "/logout",
		CheckSessionIframe:                 issuer + "/check",
		FrontchannelLogoutSupported:        true,
		FrontchannelLogoutSessionSupported: true,
	}
	if diff := cmp.Diff(want, cli.Metadata()); diff != "" {
		t.Errorf("unexpected metadata (-want +got):\n%s", diff)
	}
}

func TestDiscoveryErrors(t *testing.T) {
	for _, tc := range []struct {
		Name    string
		Handler http.HandlerFunc
		WantErr string
	}{
		{
			Name: "Not found",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			WantErr: "http status 404",
		},
		{
			Name: "Bad JSON",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"issuer":`))
			},
			WantErr: "error decoding provider metadata",
		},
		{
			Name: "Issuer mismatch",
			Handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"issuer":"https://other.example","authorization_endpoint":"https://other.example/auth"}`))
			},
			WantErr: "does not match requested issuer",
		},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			ts := httptest.NewServer(tc.Handler)
			defer ts.Close()

			_, err := NewClient(context.Background(), ts.URL)
			if err == nil {
				t.Fatal("want error, got none")
			}
			if !strings.Contains(err.Error(), tc.WantErr) {
				t.Errorf("want error containing %q, got: %v", tc.WantErr, err)
			}
		})
	}
}

func TestSupportsRevocationAuthMethod(t *testing.T) {
	md := &ProviderMetadata{}
	if !md.SupportsRevocationAuthMethod("client_secret_basic") {
		t.Error("client_secret_basic should be supported by default")
	}
	if md.SupportsRevocationAuthMethod("client_secret_post") {
		t.Error("client_secret_post should not be supported by default")
	}

	md.RevocationEndpointAuthMethodsSupported = []string{"client_secret_post", "none"}
	if !md.SupportsRevocationAuthMethod("none") {
		t.Error("none should be supported when advertised")
	}
}
