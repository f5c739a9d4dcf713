package logoff

import (
	"context"
	"net/url"
	"sync"

	"github.com/pardot/logoff/discovery"
)

// recorder collects the side effects of a logoff in the order they happen.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// fakeSession is a TokenStore that the reset actually clears, so reading the
// id token after the reset would be noticed.
type fakeSession struct {
	rec    *recorder
	tokens TokenSet
}

func (f *fakeSession) AccessToken() string  { return f.tokens.AccessToken }
func (f *fakeSession) RefreshToken() string { return f.tokens.RefreshToken }
func (f *fakeSession) IDToken() string      { return f.tokens.IDToken }

func (f *fakeSession) ResetLocalSession() {
	f.rec.add("reset")
	f.tokens = TokenSet{}
}

// fakePoster records revocation posts, failing those whose hint is in fail.
type fakePoster struct {
	rec  *recorder
	fail map[string]error
	reqs []*RevocationRequest
}

func (p *fakePoster) Post(_ context.Context, req *RevocationRequest) (*Response, error) {
	p.reqs = append(p.reqs, req)
	hint := req.Body.Get("token_type_hint")
	p.rec.add("revoke " + hint + " " + req.Body.Get("token"))
	if err := p.fail[hint]; err != nil {
		return nil, err
	}
	return &Response{StatusCode: 200}, nil
}

func recordingSink(rec *recorder, name string) URLSink {
	return HandoffFunc(func(_ context.Context, u string) error {
		rec.add(name + " " + u)
		return nil
	})
}

func testURLs(endSession string) *MetadataURLBuilder {
	return &MetadataURLBuilder{
		Metadata: &discovery.ProviderMetadata{
			Issuer:             "https://idp.example",
			RevocationEndpoint: "https://idp.example/revoke",
			EndSessionEndpoint: endSession,
		},
		ClientID: "client1",
	}
}

func endSessionURL(base, hint string) string {
	return base + "?" + url.Values{"id_token_hint": {hint}}.Encode()
}
