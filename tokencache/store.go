package tokencache

import (
	"io"
	"sync"

	"github.com/pardot/logoff"
	"github.com/sirupsen/logrus"
)

var (
	_ logoff.TokenStore   = (*Store)(nil)
	_ logoff.FlowResetter = (*Store)(nil)
)

// Store is a logoff.TokenStore over a CredentialCache, holding the tokens a
// command line relying party got for one issuer and client. Resetting the
// local session deletes the cached entry.
type Store struct {
	cache    CredentialCache
	issuer   string
	clientID string
	logger   logrus.FieldLogger

	mu     sync.Mutex
	tokens logoff.TokenSet
}

// StoreOpt configures a Store
type StoreOpt func(*Store)

// WithCache uses the passed cache
func WithCache(cc CredentialCache) StoreOpt {
	return func(s *Store) {
		s.cache = cc
	}
}

// WithLogger logs failures that cannot be returned, e.g. during reset.
func WithLogger(l logrus.FieldLogger) StoreOpt {
	return func(s *Store) {
		s.logger = l
	}
}

// Open loads the cached tokens for issuer and clientID. The result of
// BestCredentialCache is used for the cache unless WithCache is passed. A
// cache miss results in an empty store.
func Open(issuer, clientID string, opts ...StoreOpt) (*Store, error) {
	s := &Store{
		issuer:   issuer,
		clientID: clientID,
	}

	for _, o := range opts {
		o(s)
	}

	if s.cache == nil {
		s.cache = &MemoryWriteThroughCredentialCache{CredentialCache: BestCredentialCache()}
	}
	if s.logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		s.logger = l
	}

	tokens, err := s.cache.Get(issuer, clientID)
	if err != nil {
		return nil, err
	}
	if tokens != nil {
		s.tokens = *tokens
	}

	return s, nil
}

// Save replaces the held tokens and writes them through to the cache.
func (s *Store) Save(tokens logoff.TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Set(s.issuer, s.clientID, &tokens); err != nil {
		return err
	}
	s.tokens = tokens
	return nil
}

// Tokens returns a copy of the held tokens.
func (s *Store) Tokens() logoff.TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *Store) AccessToken() string  { return s.Tokens().AccessToken }
func (s *Store) RefreshToken() string { return s.Tokens().RefreshToken }
func (s *Store) IDToken() string      { return s.Tokens().IDToken }

// ResetLocalSession forgets the held tokens and deletes them from the cache.
// The in-memory tokens are always cleared; a failed cache delete is logged.
func (s *Store) ResetLocalSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = logoff.TokenSet{}
	if err := s.cache.Delete(s.issuer, s.clientID); err != nil {
		s.logger.WithError(err).WithField("issuer", s.issuer).Error("failed to delete cached tokens")
	}
}
