package auth

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

type principalKey struct{}

// WithPrincipal attaches the authenticated caller to ctx.
func WithPrincipal(ctx context.Context, user domain.SessionUser) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(ctx context.Context) (domain.SessionUser, bool) {
	user, ok := ctx.Value(principalKey{}).(domain.SessionUser)
	if !ok || user.ID == "" {
		return domain.SessionUser{}, false
	}
	return user, true
}
