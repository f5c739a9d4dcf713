// Package logoff ends a user's OpenID Connect session from the relying
// party side. It revokes the user's tokens at the authorization server's
// RFC 7009 revocation endpoint, clears local authorization state, and sends
// the user to the provider's end session endpoint when the provider session
// is still the one the client knows about.
//
// The flow is assembled from small collaborators: a TokenStore holding the
// tokens, a URLBuilder (usually a MetadataURLBuilder over discovery
// metadata), a Poster (usually an HTTPPoster), a FlowResetter, a
// SessionMonitor and a URLSink. The tokencache and middleware packages
// provide these for command line tools and web applications respectively.
//
//	o, err := logoff.New(logoff.Config{
//		Tokens:   store,
//		Resetter: store,
//		URLs:     &logoff.MetadataURLBuilder{Metadata: md, ClientID: clientID},
//	})
//	if err != nil {
//		return err
//	}
//	return o.RevokeAndLogoff(ctx, nil)
package logoff
