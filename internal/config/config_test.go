package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logoff.yaml")
	err := os.WriteFile(path, []byte(`
issuer: https://idp.example
clientID: cli
authStyle: params
postLogoutRedirectURL: https://rp.example/bye
logLevel: debug
`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := &Config{
		Issuer:                "https://idp.example",
		ClientID:              "cli",
		AuthStyle:             "params",
		PostLogoutRedirectURL: "https://rp.example/bye",
		LogLevel:              "debug",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	if err := got.Validate(); err != nil {
		t.Errorf("want valid config, got %v", err)
	}
	if s, _ := got.OAuth2AuthStyle(); s != oauth2.AuthStyleInParams {
		t.Errorf("want AuthStyleInParams, got %v", s)
	}
	if l, _ := got.Level(); l != logrus.DebugLevel {
		t.Errorf("want debug level, got %v", l)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for a missing file")
	}
}

func TestMerge(t *testing.T) {
	c := &Config{Issuer: "https://file.example", ClientID: "file", LogLevel: "warn"}
	c.Merge(Config{ClientID: "flag", ClientSecret: "s"})

	want := &Config{Issuer: "https://file.example", ClientID: "flag", ClientSecret: "s", LogLevel: "warn"}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		Name    string
		Config  Config
		WantErr bool
	}{
		{Name: "ok", Config: Config{Issuer: "https://idp.example", ClientID: "c"}},
		{Name: "no issuer", Config: Config{ClientID: "c"}, WantErr: true},
		{Name: "no client", Config: Config{Issuer: "https://idp.example"}, WantErr: true},
		{Name: "bad auth style", Config: Config{Issuer: "https://idp.example", ClientID: "c", AuthStyle: "jwt"}, WantErr: true},
		{Name: "bad log level", Config: Config{Issuer: "https://idp.example", ClientID: "c", LogLevel: "loud"}, WantErr: true},
	} {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Config.Validate()
			if (err != nil) != tc.WantErr {
				t.Errorf("want error %v, got %v", tc.WantErr, err)
			}
		})
	}
}
