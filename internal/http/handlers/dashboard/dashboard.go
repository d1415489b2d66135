// Package dashboard реализует HTTP-обработчик личного кабинета,
// доступного только при активной подписке.
package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/dto"
	"github.com/magabrotheeeer/saas-starter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
)

// Handler обрабатывает GET /api/v1/dashboard.
// Ожидает, что JWTMiddleware и RequireActiveSubscription уже отработали.
type Handler struct {
	log *slog.Logger // Логгер для записи операций и ошибок
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard"

	ctx := r.Context()
	h.log.Debug("dashboard requested",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("user_id", middlewarectx.UserIDFrom(ctx)),
	)

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": map[string]any{
			"id":    middlewarectx.UserIDFrom(ctx),
			"email": middlewarectx.EmailFrom(ctx),
			"role":  middlewarectx.RoleFrom(ctx),
		},
		"subscription": dto.FromSubscription(middlewarectx.SubscriptionFrom(ctx)),
	}))
}
