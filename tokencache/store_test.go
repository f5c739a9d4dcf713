package tokencache

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pardot/logoff"
)

type failingDeleteCache struct {
	NullCredentialCache
	deletes int
}

func (f *failingDeleteCache) Delete(string, string) error {
	f.deletes++
	return errors.New("keychain locked")
}

func TestStore(t *testing.T) {
	cache := &MemoryWriteThroughCredentialCache{CredentialCache: &NullCredentialCache{}}
	want := logoff.TokenSet{AccessToken: "a1", RefreshToken: "r1", IDToken: "id1"}
	if err := cache.Set("https://issuer.test", "cid", &want); err != nil {
		t.Fatal(err)
	}

	s, err := Open("https://issuer.test", "cid", WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, s.Tokens()); diff != "" {
		t.Errorf("unexpected tokens after open (-want +got):\n%s", diff)
	}
	if s.AccessToken() != "a1" || s.RefreshToken() != "r1" || s.IDToken() != "id1" {
		t.Errorf("accessors disagree with tokens: %q %q %q", s.AccessToken(), s.RefreshToken(), s.IDToken())
	}

	s.ResetLocalSession()

	if diff := cmp.Diff(logoff.TokenSet{}, s.Tokens()); diff != "" {
		t.Errorf("tokens not cleared by reset (-want +got):\n%s", diff)
	}

	got, err := cache.Get("https://issuer.test", "cid")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("want cache entry deleted, got %+v", got)
	}

	// idempotent
	s.ResetLocalSession()
}

func TestStoreSave(t *testing.T) {
	cache := &MemoryWriteThroughCredentialCache{CredentialCache: &NullCredentialCache{}}

	s, err := Open("https://issuer.test", "cid", WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	if s.RefreshToken() != "" {
		t.Errorf("want empty store on cache miss, got refresh token %q", s.RefreshToken())
	}

	if err := s.Save(logoff.TokenSet{AccessToken: "a2"}); err != nil {
		t.Fatal(err)
	}

	s2, err := Open("https://issuer.test", "cid", WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	if s2.AccessToken() != "a2" {
		t.Errorf("want saved access token a2, got %q", s2.AccessToken())
	}
}

func TestStoreResetClearsMemoryOnDeleteFailure(t *testing.T) {
	cache := &failingDeleteCache{}

	s, err := Open("https://issuer.test", "cid", WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	s.tokens = logoff.TokenSet{AccessToken: "a1"}

	s.ResetLocalSession()

	if cache.deletes != 1 {
		t.Errorf("want 1 delete, got %d", cache.deletes)
	}
	if s.AccessToken() != "" {
		t.Errorf("want access token cleared, got %q", s.AccessToken())
	}
}
