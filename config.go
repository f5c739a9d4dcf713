package logoff

import (
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Config holds the collaborators the logoff flow is built from.
type Config struct {
	// Tokens reports the tokens currently held for the user. Required.
	Tokens TokenStore
	// URLs builds revocation and end session requests. Required.
	URLs URLBuilder
	// Resetter clears local session state during logoff. Required.
	Resetter FlowResetter

	// Poster sends revocation requests. Defaults to an HTTPPoster using
	// http.DefaultClient and no client authentication.
	Poster Poster
	// Monitor reports server session changes. If nil, the server session is
	// never considered changed.
	Monitor SessionMonitor
	// Navigator is used when Logoff is called without a URLSink. Defaults to
	// DetectNavigator().
	Navigator URLSink

	Logger logrus.FieldLogger

	// PrometheusRegistry, if set, has the revocation and logoff counters
	// registered on it.
	PrometheusRegistry prometheus.Registerer
}

// withDefaults returns a copy of the Config with defaults set, or an error
// if a required collaborator is missing.
func (c Config) withDefaults() (Config, error) {
	if c.Tokens == nil {
		return c, errors.New("logoff: token store cannot be nil")
	}
	if c.URLs == nil {
		return c, errors.New("logoff: url builder cannot be nil")
	}
	if c.Resetter == nil {
		return c, errors.New("logoff: flow resetter cannot be nil")
	}

	if c.Poster == nil {
		c.Poster = &HTTPPoster{}
	}
	if c.Monitor == nil {
		c.Monitor = unchangedMonitor{}
	}
	if c.Navigator == nil {
		c.Navigator = DetectNavigator()
	}
	if c.Logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		c.Logger = l
	}

	return c, nil
}
