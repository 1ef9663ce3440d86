package domain

import "context"

// Identity is the authenticated user, supplied by the auth layer.
type Identity struct {
	UserID string
	Name   string
}

func (i Identity) IsZero() bool {
	return i.UserID == ""
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity on ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && !id.IsZero()
}
