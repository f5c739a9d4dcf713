// Package config loads the relying party settings shared by the logoff
// commands.
package config

import (
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Config holds configuration options for logging users off an OIDC issuer.
type Config struct {
	// Issuer is the OIDC issuer URL
	Issuer string `json:"issuer"`
	// ClientID for revocation requests and end session hints
	ClientID string `json:"clientID"`
	// ClientSecret for confidential clients. Empty for public clients.
	ClientSecret string `json:"clientSecret"`
	// AuthStyle is how the client authenticates to the revocation
	// endpoint, "basic" (default) or "params"
	AuthStyle string `json:"authStyle"`
	// PostLogoutRedirectURL is sent to the end session endpoint
	PostLogoutRedirectURL string `json:"postLogoutRedirectURL"`
	// CacheDir holds encrypted token caches. Defaults to ~/.oidc-cache
	CacheDir string `json:"cacheDir"`
	// LogLevel is a logrus level name, defaults to "info"
	LogLevel string `json:"logLevel"`
}

// Load reads a YAML (or JSON) config file.
func Load(path string) (*Config, error) {
	c := &Config{}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading %s", path)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "Error parsing %s", path)
	}

	return c, nil
}

// Merge overlays the non-empty fields of o onto c. Command line flags are
// merged over the file this way.
func (c *Config) Merge(o Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Issuer, o.Issuer)
	set(&c.ClientID, o.ClientID)
	set(&c.ClientSecret, o.ClientSecret)
	set(&c.AuthStyle, o.AuthStyle)
	set(&c.PostLogoutRedirectURL, o.PostLogoutRedirectURL)
	set(&c.CacheDir, o.CacheDir)
	set(&c.LogLevel, o.LogLevel)
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	if c.Issuer == "" || c.ClientID == "" {
		return errors.New("issuer and client ID are required")
	}
	if _, err := c.OAuth2AuthStyle(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// OAuth2AuthStyle maps AuthStyle onto x/oauth2's.
func (c *Config) OAuth2AuthStyle() (oauth2.AuthStyle, error) {
	switch c.AuthStyle {
	case "", "basic":
		return oauth2.AuthStyleInHeader, nil
	case "params":
		return oauth2.AuthStyleInParams, nil
	default:
		return oauth2.AuthStyleAutoDetect, errors.Errorf("unknown auth style %q, want basic or params", c.AuthStyle)
	}
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return l, errors.Wrap(err, "invalid log level")
	}
	return l, nil
}

// Logger returns a logger at the configured level.
func (c *Config) Logger() (*logrus.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(lvl)
	return l, nil
}
