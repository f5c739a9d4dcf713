package logoff

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome is how a logoff ended once local state was cleared.
type Outcome string

const (
	OutcomeNoEndSessionEndpoint Outcome = "no_end_session_endpoint"
	OutcomeServerSessionChanged Outcome = "server_session_changed"
	OutcomeHandoff              Outcome = "handoff"
	OutcomeNavigate             Outcome = "navigate"
)

type metrics struct {
	revocations *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logoff_revocations_total",
			Help: "Count of token revocation requests by token type and result.",
		}, []string{"token_type_hint", "result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logoff_outcomes_total",
			Help: "Count of completed logoffs by outcome.",
		}, []string{"outcome"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.revocations, err = register(reg, m.revocations); err != nil {
		return nil, fmt.Errorf("logoff: failed to register revocation metrics: %v", err)
	}
	if m.outcomes, err = register(reg, m.outcomes); err != nil {
		return nil, fmt.Errorf("logoff: failed to register outcome metrics: %v", err)
	}
	return m, nil
}

// register adds c to reg. Orchestrators are cheap and may be built per
// request, so an identical collector already on reg is reused.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *metrics) revocation(kind TokenKind, result string) {
	m.revocations.With(prometheus.Labels{"token_type_hint": kind.Hint(), "result": result}).Inc()
}

func (m *metrics) outcome(o Outcome) {
	m.outcomes.With(prometheus.Labels{"outcome": string(o)}).Inc()
}
