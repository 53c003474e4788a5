package auth

import (
	"context"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated identity resolved from the session
// cookie. It is attached to the request context by middleware.RequireAuth.
type AuthContext struct {
	UserID    int64
	Role      string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin
}

// RequireAdmin returns apperror.ErrForbidden unless the context carries an
// admin identity.
func RequireAdmin(ctx context.Context) error {
	if !IsAdmin(ctx) {
		return apperror.ErrForbidden
	}
	return nil
}
