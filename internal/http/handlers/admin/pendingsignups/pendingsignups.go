// Package pendingsignups реализует админские обработчики обслуживания
// незавершённых регистраций: просмотр, удаление и очистку просроченных.
// Доступ проверяется RequirePermission на уровне маршрутов.
package pendingsignups

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/dto"
	"github.com/magabrotheeeer/saas-starter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service обслуживание незавершённых регистраций.
type Service interface {
	ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error)
	DeletePendingSignup(ctx context.Context, id string) (bool, error)
	CleanupExpiredPendingSignups(ctx context.Context) (int64, error)
}

// Handler обрабатывает /api/v1/admin/pending-signups.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис незавершённых регистраций
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("admin_id", middlewarectx.UserIDFrom(r.Context())),
	)
}

// List возвращает страницу регистраций. Параметры limit и offset необязательны.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.pendingsignups.list")

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit <= 0 || limit > maxLimit {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid offset"))
		return
	}

	list, err := h.service.ListPendingSignups(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list pending signups", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(dto.FromPendingSignups(list)))
}

// Delete удаляет регистрацию по идентификатору.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.pendingsignups.delete")

	id := chi.URLParam(r, "id")
	deleted, err := h.service.DeletePendingSignup(r.Context(), id)
	if err != nil {
		log.Error("failed to delete pending signup", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	if !deleted {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("pending signup not found"))
		return
	}
	log.Info("pending signup deleted", slog.String("pending_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": 1}))
}

// Cleanup удаляет все просроченные регистрации.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.pendingsignups.cleanup")

	n, err := h.service.CleanupExpiredPendingSignups(r.Context())
	if err != nil {
		log.Error("failed to cleanup pending signups", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	log.Info("expired pending signups removed", slog.Int64("count", n))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": n}))
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
