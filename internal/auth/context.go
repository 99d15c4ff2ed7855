package auth

import (
	"context"

	"github.com/mchalk/repset/internal/model"
)

type contextKey struct{}

// StaffContext carries the authenticated staff identity through a request.
type StaffContext struct {
	StaffID   int64
	Role      string
	SessionID int64
}

// WithStaff returns a context carrying the staff identity.
func WithStaff(ctx context.Context, sc StaffContext) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext extracts the staff identity, if present.
func FromContext(ctx context.Context) (StaffContext, bool) {
	sc, ok := ctx.Value(contextKey{}).(StaffContext)
	return sc, ok
}

// StaffID returns the authenticated staff id, or 0.
func StaffID(ctx context.Context) int64 {
	sc, _ := FromContext(ctx)
	return sc.StaffID
}

// IsAdmin reports whether the context belongs to an admin.
func IsAdmin(ctx context.Context) bool {
	sc, ok := FromContext(ctx)
	return ok && sc.Role == model.RoleAdmin
}
