// Package adminrole повышает до admin пользователей из списка администраторов
// после регистрации или входа через OAuth.
package adminrole

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/saas-starter/internal/config"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/metrics"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/services/auth"
)

// RoleChanger меняет роль пользователя, только если текущая роль равна from.
type RoleChanger interface {
	ChangeUserRole(ctx context.Context, userID, from, to string) (int64, error)
}

// Hook хук повышения роли.
type Hook struct {
	admins map[string]struct{}
	repo   RoleChanger
	log    *slog.Logger
}

// New создаёт хук. Адреса нормализуются, пустые отбрасываются.
func New(adminEmails []string, repo RoleChanger, log *slog.Logger) *Hook {
	admins := make(map[string]struct{})
	for _, email := range config.NormalizeEmails(adminEmails) {
		admins[email] = struct{}{}
	}
	return &Hook{admins: admins, repo: repo, log: log}
}

// AfterAuth повышает пользователя с ролью user до admin, если его почта в списке.
// Ошибки логируются и не прерывают аутентификацию.
func (h *Hook) AfterAuth(ctx context.Context, e auth.Event) {
	const op = "adminrole.AfterAuth"

	if len(h.admins) == 0 || !auth.IsSignUpOrCallback(e.Path) {
		return
	}
	if _, ok := h.admins[config.NormalizeEmail(e.Email)]; !ok {
		return
	}

	log := h.log.With(slog.String("op", op), slog.String("user_id", e.UserID))
	n, err := h.repo.ChangeUserRole(ctx, e.UserID, models.RoleUser, models.RoleAdmin)
	if err != nil {
		log.Error("failed to promote user to admin", sl.Err(err))
		return
	}
	if n > 0 {
		metrics.AdminPromotions.Inc()
		log.Info("user promoted to admin")
	}
}
