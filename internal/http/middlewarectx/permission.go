package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/permissions"
)

// RequirePermission пропускает запрос, только если роли пользователя разрешено действие над ресурсом.
func RequirePermission(log *slog.Logger, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFrom(r.Context())
			if !permissions.Can(role, resource, action) {
				log.Warn("permission denied",
					slog.String("user_id", UserIDFrom(r.Context())),
					slog.String("role", role),
					slog.String("resource", resource),
					slog.String("action", action),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
