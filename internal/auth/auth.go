package auth

import (
	"context"
)

type ctxKey int

const keyIdentity ctxKey = 0

// Identity is the authenticated user behind one request. It is rebuilt on
// every request and lives only in that request's context.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// WithIdentity injects the identity into context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

// IdentityFrom extracts the identity from context (if present).
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(keyIdentity).(*Identity)
	return id, ok && id != nil
}
