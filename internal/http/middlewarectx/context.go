package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID ключ идентификатора пользователя в контексте
	UserID Key = "user_id"
	// Email ключ почты пользователя в контексте
	Email Key = "email"
	// Role ключ роли пользователя в контексте
	Role Key = "role"
	// Subscription ключ действующей подписки в контексте
	Subscription Key = "subscription"
)

// WithUser кладёт данные пользователя в контекст.
func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, UserID, user.ID)
	ctx = context.WithValue(ctx, Email, user.Email)
	return context.WithValue(ctx, Role, user.Role)
}

// UserIDFrom возвращает идентификатор пользователя из контекста.
func UserIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(UserID).(string)
	return v
}

// EmailFrom возвращает почту пользователя из контекста.
func EmailFrom(ctx context.Context) string {
	v, _ := ctx.Value(Email).(string)
	return v
}

// RoleFrom возвращает роль пользователя из контекста.
func RoleFrom(ctx context.Context) string {
	v, _ := ctx.Value(Role).(string)
	return v
}

// SubscriptionFrom возвращает подписку, найденную RequireActiveSubscription.
func SubscriptionFrom(ctx context.Context) *models.Subscription {
	v, _ := ctx.Value(Subscription).(*models.Subscription)
	return v
}
