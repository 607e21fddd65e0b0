// Package session carries the caller's session as an explicit value.
//
// There is no ambient auth singleton: the gateway receives a Session by
// injection, and request handlers may carry one through context.
package session

import "context"

// Session identifies the caller to the upstream gateway.
type Session struct {
	// Token is presented as a bearer token when non-empty.
	Token string

	// Role is an informational label (e.g. "admin"); the upstream enforces
	// permissions, this layer only forwards identity.
	Role string
}

// Anonymous returns the zero session.
func Anonymous() Session { return Session{} }

type contextKey struct{}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the session from ctx, if present.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
