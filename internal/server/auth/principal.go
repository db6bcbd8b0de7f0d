package auth

import "context"

// Principal is the authenticated caller of an admin operation. IP and
// UserAgent are recorded on feedback tokens issued on the caller's behalf.
type Principal struct {
	UserID    int64
	Role      string
	IP        string
	UserAgent string
}

type ctxKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
