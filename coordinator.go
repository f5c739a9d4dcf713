package logoff

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Coordinator logs the user out locally, and on the authorization server
// when that is still meaningful.
type Coordinator struct {
	tokens    TokenStore
	urls      URLBuilder
	resetter  FlowResetter
	monitor   SessionMonitor
	navigator URLSink

	logger  logrus.FieldLogger
	metrics *metrics
}

// NewCoordinator returns a Coordinator for the given config. Poster is
// ignored; use New for revocation.
func NewCoordinator(c Config) (*Coordinator, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(c.PrometheusRegistry)
	if err != nil {
		return nil, err
	}
	return newCoordinator(c, m), nil
}

func newCoordinator(c Config, m *metrics) *Coordinator {
	return &Coordinator{
		tokens:    c.Tokens,
		urls:      c.URLs,
		resetter:  c.Resetter,
		monitor:   c.Monitor,
		navigator: c.Navigator,
		logger:    c.Logger,
		metrics:   m,
	}
}

// Logoff clears local session state, then sends the user to the end session
// endpoint via sink. If sink is nil, or a nil HandoffFunc, the configured
// navigator is used.
//
// Local state is always cleared. The server session is left alone when the
// provider has no end session endpoint, or when the server session has
// already changed from the one we know about. Errors from the sink are
// returned as is.
func (c *Coordinator) Logoff(ctx context.Context, sink URLSink) error {
	c.logger.Debug("logoff, removing local authorization state")

	// read the hint before the reset clears it
	endSessionURL, ok := c.EndSessionURL()
	c.resetter.ResetLocalSession()

	if !ok {
		c.finish(OutcomeNoEndSessionEndpoint, "only local session cleaned up, no end_session_endpoint")
		return nil
	}

	if c.monitor.ServerStateChanged() {
		c.finish(OutcomeServerSessionChanged, "only local session cleaned up, server session has changed")
		return nil
	}

	outcome := OutcomeHandoff
	if f, ok := sink.(HandoffFunc); ok && f == nil {
		sink = nil
	}
	if sink == nil {
		sink = c.navigator
		outcome = OutcomeNavigate
	}
	c.finish(outcome, "ending server session")

	return sink.Navigate(ctx, endSessionURL)
}

// EndSessionURL returns the end session URL for the stored id token, if the
// provider has an end session endpoint.
func (c *Coordinator) EndSessionURL() (string, bool) {
	return c.urls.EndSessionURL(c.tokens.IDToken())
}

func (c *Coordinator) finish(o Outcome, msg string) {
	c.logger.WithField("outcome", o).Debug(msg)
	c.metrics.outcome(o)
}
