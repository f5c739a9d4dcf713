package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pardot/logoff"
	"github.com/pardot/logoff/discovery"
	"github.com/pardot/logoff/internal/config"
	"github.com/pardot/logoff/tokencache"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", os.Args[0], err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "oidc-logoff",
	Short:         "Revoke cached OIDC tokens and end the issuer session",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ( // flags
	configFile string
	flagCfg    config.Config
	skipCache  bool

	revokeKind  string
	revokeToken string

	logoffRevoke bool

	storeTokens logoff.TokenSet
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagCfg.Issuer, "issuer", "", "OIDC Issuer URL (required)")
	pf.StringVar(&flagCfg.ClientID, "client-id", "", "OIDC Client ID (required)")
	pf.StringVar(&flagCfg.ClientSecret, "client-secret", "", "OIDC Client Secret")
	pf.StringVar(&flagCfg.AuthStyle, "auth-style", "", "Revocation client authentication, basic or params")
	pf.StringVar(&flagCfg.PostLogoutRedirectURL, "post-logout-redirect-url", "", "Where the issuer sends the browser after logout")
	pf.StringVar(&flagCfg.CacheDir, "cache-dir", "", "Directory for the encrypted token cache")
	pf.StringVar(&flagCfg.LogLevel, "log-level", "", "Log level")
	pf.BoolVar(&skipCache, "skip-cache", false, "Do not read or write the token cache")

	revokeCmd.Flags().StringVar(&revokeKind, "kind", "access", "Token to revoke, access or refresh")
	revokeCmd.Flags().StringVar(&revokeToken, "token", "", "Revoke this token instead of the cached one")

	logoffCmd.Flags().BoolVar(&logoffRevoke, "revoke", false, "Revoke the cached tokens before logging off")

	storeCmd.Flags().StringVar(&storeTokens.AccessToken, "access-token", "", "Access token")
	storeCmd.Flags().StringVar(&storeTokens.RefreshToken, "refresh-token", "", "Refresh token")
	storeCmd.Flags().StringVar(&storeTokens.IDToken, "id-token", "", "ID token")

	rootCmd.AddCommand(revokeCmd, logoffCmd, endSessionURLCmd, storeCmd)
}

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a single token at the issuer's revocation endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		o, _, err := setup(ctx)
		if err != nil {
			return err
		}

		tv := logoff.Stored
		if revokeToken != "" {
			tv = logoff.Supplied(revokeToken)
		}

		var resp *logoff.Response
		switch revokeKind {
		case "access":
			resp, err = o.RevokeAccessToken(ctx, tv)
		case "refresh":
			resp, err = o.RevokeRefreshToken(ctx, tv)
		default:
			return fmt.Errorf("unknown token kind %q, want access or refresh", revokeKind)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s token (HTTP %d)\n", revokeKind, resp.StatusCode)
		return nil
	},
}

var logoffCmd = &cobra.Command{
	Use:   "logoff",
	Short: "Clear cached tokens and open the issuer's end session URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		o, _, err := setup(ctx)
		if err != nil {
			return err
		}

		if logoffRevoke {
			return o.RevokeAndLogoff(ctx, nil)
		}
		return o.Logoff(ctx, nil)
	},
}

var endSessionURLCmd = &cobra.Command{
	Use:   "end-session-url",
	Short: "Print the end session URL for the cached ID token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, err := setup(cmd.Context())
		if err != nil {
			return err
		}

		u, ok := o.EndSessionURL()
		if !ok {
			return errors.New("issuer has no end_session_endpoint")
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Put tokens obtained elsewhere into the token cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		return store.Save(storeTokens)
	},
}

// setup discovers the issuer and opens the token cache.
func setup(ctx context.Context) (*logoff.Orchestrator, *tokencache.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := &config.Config{}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg.Merge(flagCfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	logger.Out = os.Stderr

	authStyle, err := cfg.OAuth2AuthStyle()
	if err != nil {
		return nil, nil, err
	}

	dc, err := discovery.NewClient(ctx, cfg.Issuer)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to discover issuer")
	}

	store, err := tokencache.Open(cfg.Issuer, cfg.ClientID,
		tokencache.WithCache(credentialCache(cfg)),
		tokencache.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open token cache")
	}

	o, err := logoff.New(logoff.Config{
		Tokens:   store,
		Resetter: store,
		URLs: &logoff.MetadataURLBuilder{
			Metadata:              dc.Metadata(),
			ClientID:              cfg.ClientID,
			ClientSecret:          cfg.ClientSecret,
			AuthStyle:             authStyle,
			PostLogoutRedirectURL: cfg.PostLogoutRedirectURL,
		},
		Poster: &logoff.HTTPPoster{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			AuthStyle:    authStyle,
		},
		Navigator: logoff.DetectNavigator(),
		Logger:    logger.WithField("issuer", cfg.Issuer),
	})
	if err != nil {
		return nil, nil, err
	}

	return o, store, nil
}

func credentialCache(cfg *config.Config) tokencache.CredentialCache {
	if skipCache {
		return &tokencache.NullCredentialCache{}
	}
	if cfg.CacheDir != "" {
		return &tokencache.MemoryWriteThroughCredentialCache{
			CredentialCache: &tokencache.EncryptedFileCredentialCache{Dir: cfg.CacheDir},
		}
	}
	return &tokencache.MemoryWriteThroughCredentialCache{
		CredentialCache: tokencache.BestCredentialCache(),
	}
}
