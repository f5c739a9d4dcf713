package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/pardot/logoff/internal/config"
	"github.com/pardot/logoff/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	sessionAuthenticationKeyBytesLength = 64
	sessionEncryptionKeyBytesLength     = 32
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", os.Args[0], err)
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:   "oidc-logoff-rp",
	Short: "Example relying party that revokes tokens and ends the issuer session on logout",
	RunE:  run,
}

var ( // flags
	addr                     string
	configFile               string
	flagCfg                  config.Config
	revoke                   bool
	crossSiteCookies         bool
	sessionAuthenticationKey string
	sessionEncryptionKey     string
)

func init() {
	cmd.Flags().StringVar(&addr, "addr", "localhost:8084", "Address to listen on")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&flagCfg.Issuer, "issuer", "http://localhost:8085", "Issuer URL for OIDC provider")
	cmd.Flags().StringVar(&flagCfg.ClientID, "client-id", "client-id", "OIDC Client ID")
	cmd.Flags().StringVar(&flagCfg.ClientSecret, "client-secret", "", "OIDC Client Secret")
	cmd.Flags().StringVar(&flagCfg.AuthStyle, "auth-style", "", "Revocation client authentication, basic or params")
	cmd.Flags().StringVar(&flagCfg.PostLogoutRedirectURL, "post-logout-redirect-url", "http://localhost:8084/logged-out", "Where the issuer sends the browser after logout")
	cmd.Flags().StringVar(&flagCfg.LogLevel, "log-level", "", "Log level")
	cmd.Flags().BoolVar(&revoke, "revoke", true, "Revoke tokens before ending the session")
	cmd.Flags().BoolVar(&crossSiteCookies, "cross-site-cookies", false, "Set the session cookie SameSite=None; Secure so front-channel logout sees it. Needs HTTPS")
	cmd.Flags().StringVar(&sessionAuthenticationKey, "session-auth-key", mustGenRandB64(sessionAuthenticationKeyBytesLength), "Session authentication key, 64-byte, base64-encoded")
	cmd.Flags().StringVar(&sessionEncryptionKey, "session-encrypt-key", mustGenRandB64(sessionEncryptionKeyBytesLength), "Session encryption key, 32-byte, base64-encoded")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}
	cfg.Merge(flagCfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	authStyle, err := cfg.OAuth2AuthStyle()
	if err != nil {
		return err
	}

	sessionAuthenticationKey, err := base64.StdEncoding.DecodeString(sessionAuthenticationKey)
	if err != nil {
		return errors.Wrap(err, "failed to base64 decode session-auth-key")
	} else if len(sessionAuthenticationKey) != sessionAuthenticationKeyBytesLength {
		return fmt.Errorf("session-auth-key must be %d bytes of random data", sessionAuthenticationKeyBytesLength)
	}

	sessionEncryptionKey, err := base64.StdEncoding.DecodeString(sessionEncryptionKey)
	if err != nil {
		return errors.Wrap(err, "failed to base64 decode session-encrypt-key")
	} else if len(sessionEncryptionKey) != sessionEncryptionKeyBytesLength {
		return fmt.Errorf("session-encrypt-key must be %d bytes of random data", sessionEncryptionKeyBytesLength)
	}

	reg := prometheus.NewRegistry()

	h := &middleware.Handler{
		Issuer:                   cfg.Issuer,
		ClientID:                 cfg.ClientID,
		ClientSecret:             cfg.ClientSecret,
		AuthStyle:                authStyle,
		PostLogoutRedirectURL:    cfg.PostLogoutRedirectURL,
		LoggedOutURL:             "/logged-out",
		Revoke:                   revoke,
		SessionAuthenticationKey: sessionAuthenticationKey,
		SessionEncryptionKey:     sessionEncryptionKey,
		SessionOptions:           sessionOptions(crossSiteCookies),
		Logger:                   logger,
		PrometheusRegistry:       reg,
	}

	svr, err := newServer(h, reg, logger.Writer())
	if err != nil {
		return errors.Wrap(err, "Error creating server")
	}

	logger.Infof("Listening on: http://%s", addr)
	srv := &http.Server{
		Addr:    addr,
		Handler: svr,
	}
	return srv.ListenAndServe()
}

func sessionOptions(crossSite bool) *sessions.Options {
	if !crossSite {
		return nil
	}
	return &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func mustGenRandB64(len int) string {
	b := make([]byte, len)
	_, err := rand.Read(b)
	if err != nil {
		log.Fatalf("Error fetching %d random bytes [%+v]", len, err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
