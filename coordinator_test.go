package logoff

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLogoff(t *testing.T) {
	const endSession = "https://idp.example/end"

	for _, tc := range []struct {
		Name       string
		EndSession string
		Changed    bool
		// UseDefault passes a nil sink, so the configured navigator is used
		UseDefault bool

		WantEvents []string
	}{
		{
			Name:       "handoff",
			EndSession: endSession,
			WantEvents: []string{"reset", "handoff " + endSessionURL(endSession, "i1")},
		},
		{
			Name:       "default navigator",
			EndSession: endSession,
			UseDefault: true,
			WantEvents: []string{"reset", "default " + endSessionURL(endSession, "i1")},
		},
		{
			Name:       "no end session endpoint",
			WantEvents: []string{"reset"},
		},
		{
			Name:       "no end session endpoint with default navigator",
			UseDefault: true,
			WantEvents: []string{"reset"},
		},
		{
			Name:       "server session changed",
			EndSession: endSession,
			Changed:    true,
			WantEvents: []string{"reset"},
		},
	} {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			rec := &recorder{}
			sess := &fakeSession{rec: rec, tokens: TokenSet{AccessToken: "a1", IDToken: "i1"}}
			flag := &StateFlag{}
			if tc.Changed {
				flag.MarkChanged()
			}

			c, err := NewCoordinator(Config{
				Tokens:    sess,
				URLs:      testURLs(tc.EndSession),
				Resetter:  sess,
				Monitor:   flag,
				Navigator: recordingSink(rec, "default"),
			})
			if err != nil {
				t.Fatal(err)
			}

			var sink URLSink
			if !tc.UseDefault {
				sink = recordingSink(rec, "handoff")
			}

			if err := c.Logoff(context.Background(), sink); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tc.WantEvents, rec.get()); diff != "" {
				t.Errorf("unexpected events (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogoffSinkError(t *testing.T) {
	rec := &recorder{}
	sess := &fakeSession{rec: rec, tokens: TokenSet{IDToken: "i1"}}
	errNav := errors.New("no browser")

	c, err := NewCoordinator(Config{
		Tokens:   sess,
		URLs:     testURLs("https://idp.example/end"),
		Resetter: sess,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = c.Logoff(context.Background(), HandoffFunc(func(context.Context, string) error {
		return errNav
	}))
	if err != errNav {
		t.Errorf("want sink error returned as is, got %v", err)
	}
	if diff := cmp.Diff([]string{"reset"}, rec.get()); diff != "" {
		t.Errorf("want local state reset before navigating (-want +got):\n%s", diff)
	}
}

func TestLogoffNilHandoffFunc(t *testing.T) {
	rec := &recorder{}
	sess := &fakeSession{rec: rec, tokens: TokenSet{IDToken: "i1"}}

	c, err := NewCoordinator(Config{
		Tokens:    sess,
		URLs:      testURLs("https://idp.example/end"),
		Resetter:  sess,
		Navigator: recordingSink(rec, "default"),
	})
	if err != nil {
		t.Fatal(err)
	}

	var h HandoffFunc
	if err := c.Logoff(context.Background(), h); err != nil {
		t.Fatal(err)
	}

	want := []string{"reset", "default " + endSessionURL("https://idp.example/end", "i1")}
	if diff := cmp.Diff(want, rec.get()); diff != "" {
		t.Errorf("want nil HandoffFunc to fall back to the navigator (-want +got):\n%s", diff)
	}
}

func TestEndSessionURL(t *testing.T) {
	c, err := NewCoordinator(Config{
		Tokens:   StaticTokens(TokenSet{IDToken: "i1"}),
		URLs:     testURLs("https://idp.example/end"),
		Resetter: ResetFunc(func() {}),
	})
	if err != nil {
		t.Fatal(err)
	}

	u, ok := c.EndSessionURL()
	if !ok {
		t.Fatal("want end session URL")
	}
	if want := "https://idp.example/end?id_token_hint=i1"; u != want {
		t.Errorf("want %s, got %s", want, u)
	}

	c, err = NewCoordinator(Config{
		Tokens:   StaticTokens(TokenSet{IDToken: "i1"}),
		URLs:     testURLs(""),
		Resetter: ResetFunc(func() {}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := c.EndSessionURL(); ok {
		t.Errorf("want no end session URL, got %s", u)
	}
}

func TestEchoNavigator(t *testing.T) {
	var buf bytes.Buffer
	n := &EchoNavigator{Out: &buf}

	if err := n.Navigate(context.Background(), "https://idp.example/end"); err != nil {
		t.Fatal(err)
	}

	want := "To finish signing out, open this URL in a browser: https://idp.example/end\n"
	if buf.String() != want {
		t.Errorf("want %q, got %q", want, buf.String())
	}
}

func TestStateFlag(t *testing.T) {
	f := &StateFlag{}
	if f.ServerStateChanged() {
		t.Error("new flag should be unchanged")
	}
	f.MarkChanged()
	if !f.ServerStateChanged() {
		t.Error("want changed after MarkChanged")
	}
	f.Clear()
	if f.ServerStateChanged() {
		t.Error("want unchanged after Clear")
	}
}
