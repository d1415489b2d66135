// Package oauthlink реализует HTTP-обработчик, который по почте находит
// незавершённую OAuth-регистрацию и привязывает её к браузеру через cookie.
//
// Нужен, когда колбэк провайдера и выбор плана происходят в разных вкладках.
// Регистрации по паролю этим путём не выдаются: для них ответ такой же,
// как для отсутствующей записи.
package oauthlink

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// Service поиск регистрации по почте.
type Service interface {
	GetPendingSignupByEmail(ctx context.Context, email string) (*models.PendingSignup, error)
}

// Cookie запись идентификатора регистрации в cookie.
type Cookie interface {
	Set(w http.ResponseWriter, pendingID string) error
}

// Request входные данные.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Handler обрабатывает POST /api/v1/signup/oauth/link.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Поиск регистрации по почте
	cookie   Cookie              // Cookie незавершённой регистрации
	validate *validator.Validate // Валидатор для проверки входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie Cookie) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает POST /api/v1/signup/oauth/link.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signup.oauthlink"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	pending, err := h.service.GetPendingSignupByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error("failed to get pending signup", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	// Только OAuth-регистрации: регистрацию по паролю нельзя подхватить, зная одну почту.
	if pending == nil || !pending.IsOAuth() {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"success": false,
			"reason":  "not_found",
		}))
		return
	}
	if err := h.cookie.Set(w, pending.ID); err != nil {
		log.Error("failed to set pending cookie", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"success":   true,
		"pendingId": pending.ID,
	}))
}
