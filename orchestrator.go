package logoff

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Orchestrator revokes a user's tokens at the authorization server (RFC 7009)
// and then logs them off. It embeds the Coordinator, so Logoff can be called
// on its own.
type Orchestrator struct {
	*Coordinator

	poster Poster
}

// New returns an Orchestrator for the given config.
func New(c Config) (*Orchestrator, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(c.PrometheusRegistry)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Coordinator: newCoordinator(c, m),
		poster:      c.Poster,
	}, nil
}

// RevokeAccessToken revokes an access token. Pass Stored to revoke the one
// in the token store, or Supplied to revoke any token this client manages.
//
// https://tools.ietf.org/html/rfc7009
func (o *Orchestrator) RevokeAccessToken(ctx context.Context, token TokenValue) (*Response, error) {
	return o.revoke(ctx, AccessToken, token)
}

// RevokeRefreshToken revokes a refresh token. Pass Stored to revoke the one
// in the token store, or Supplied to revoke any token this client manages.
//
// https://tools.ietf.org/html/rfc7009
func (o *Orchestrator) RevokeRefreshToken(ctx context.Context, token TokenValue) (*Response, error) {
	return o.revoke(ctx, RefreshToken, token)
}

// RevokeAndLogoff revokes the refresh token, if there is one, then the access
// token, and then calls Logoff with sink. If a revocation fails, the flow
// stops there: local state is kept and the failure is returned, so the
// caller can retry or call Logoff itself.
func (o *Orchestrator) RevokeAndLogoff(ctx context.Context, sink URLSink) error {
	if o.tokens.RefreshToken() != "" {
		if err := o.revokeRefreshThenAccess(ctx); err != nil {
			return o.abort("revoke token", err)
		}
	} else {
		if _, err := o.RevokeAccessToken(ctx, Stored); err != nil {
			return o.abort("revoke access token", err)
		}
	}

	return o.Logoff(ctx, sink)
}

// revokeRefreshThenAccess revokes in order. The access token revocation must
// not start until the refresh token result is known.
func (o *Orchestrator) revokeRefreshThenAccess(ctx context.Context) error {
	if _, err := o.RevokeRefreshToken(ctx, Stored); err != nil {
		return err
	}
	_, err := o.RevokeAccessToken(ctx, Stored)
	return err
}

func (o *Orchestrator) abort(reason string, err error) error {
	rerr := &RevocationError{Reason: reason, Cause: err}
	o.logger.WithError(err).Error(reason + " failed, skipping logoff")
	return rerr
}

func (o *Orchestrator) revoke(ctx context.Context, kind TokenKind, v TokenValue) (*Response, error) {
	l := o.logger.WithField("token_type_hint", kind.Hint())

	fail := func(err error) (*Response, error) {
		l.WithError(err).Error("revocation request failed")
		o.metrics.revocation(kind, "error")
		return nil, &RevocationError{Reason: kind.String(), Cause: err}
	}

	token := v.resolve(kind, o.tokens)
	if token == "" {
		return fail(ErrNoToken)
	}

	endpoint, err := o.urls.RevocationEndpoint()
	if err != nil {
		return fail(err)
	}

	resp, err := o.poster.Post(ctx, &RevocationRequest{
		Endpoint:    endpoint,
		Body:        o.urls.RevocationBody(kind, token),
		ContentType: FormContentType,
	})
	if err != nil {
		return fail(err)
	}

	l.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"body":   string(resp.Body),
	}).Debug("revocation endpoint post response")
	o.metrics.revocation(kind, "success")

	return resp, nil
}
