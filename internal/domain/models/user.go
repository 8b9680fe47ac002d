package models

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

// AuthUser - аутентифицированный пользователь запроса, кладётся в контекст
// middleware'ом авторизации.
type AuthUser struct {
	ID         int64
	Phone      string
	Role       types.UserRole
	TaxiparkID int64
}

var AnonymousUser = &AuthUser{}

func (u *AuthUser) IsAnonymous() bool {
	return u == AnonymousUser
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func UserFromContext(ctx context.Context) *AuthUser {
	u, ok := ctx.Value(userCtxKey{}).(*AuthUser)
	if !ok {
		return AnonymousUser
	}
	return u
}
