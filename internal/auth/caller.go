// Package auth issues and verifies bearer tokens and carries the verified
// caller identity through request contexts.
package auth

import "context"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Caller is the identity a request was authenticated as.
type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom returns the caller stored by Middleware.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
