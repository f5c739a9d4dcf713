package idtoken

import (
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/go-cmp/cmp"
)

func mustSign(t *testing.T, claims interface{}) string {
	t.Helper()

	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte("0123456789abcdef0123456789abcdef")}, nil)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestParseHint(t *testing.T) {
	raw := mustSign(t, map[string]interface{}{
		"iss": "https://idp.example",
		"sub": "user1",
		"aud": "client1",
		"sid": "session1",
	})

	h, err := ParseHint(raw)
	if err != nil {
		t.Fatal(err)
	}

	want := &Hint{
		Issuer:    "https://idp.example",
		Subject:   "user1",
		Audience:  jwt.Audience{"client1"},
		SessionID: "session1",
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("unexpected hint (-want +got):\n%s", diff)
	}
}

func TestParseHintInvalid(t *testing.T) {
	if _, err := ParseHint("not-a-jwt"); err == nil {
		t.Error("want error parsing garbage, got none")
	}
}

func TestHintMatches(t *testing.T) {
	h := &Hint{Issuer: "https://idp.example", SessionID: "s1"}

	for _, tc := range []struct {
		Name   string
		Issuer string
		SID    string
		Want   bool
	}{
		{Name: "exact", Issuer: "https://idp.example", SID: "s1", Want: true},
		{Name: "no sid", Issuer: "https://idp.example", Want: true},
		{Name: "no params", Want: true},
		{Name: "other session", Issuer: "https://idp.example", SID: "s2", Want: false},
		{Name: "other issuer", Issuer: "https://evil.example", SID: "s1", Want: false},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			if got := h.Matches(tc.Issuer, tc.SID); got != tc.Want {
				t.Errorf("want %v, got %v", tc.Want, got)
			}
		})
	}
}
