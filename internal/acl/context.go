// internal/acl/context.go
//
// Context carrier for the resolved principal.
//
// The principal is resolved once per request and stashed here so later
// checks in the same request do not repeat header parsing or the API-key
// lookup.  Nothing is shared across requests.

package acl

import "context"

// principalKey is unexported to avoid context-key collisions.
type principalKey struct{}

// WithPrincipal returns a new context carrying the resolved principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the stored principal.  ok == false when resolution
// has not run for this request or resolved to anonymous; anonymous callers
// are never stored.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalKey{})
	if v == nil {
		return nil, false
	}
	p, ok := v.(Principal)
	return p, ok
}
