// Package foruser реализует HTTP-обработчик оформления подписки
// уже зарегистрированным пользователем.
//
// Маршрут закрыт JWT: пользователь берётся из контекста запроса, а userId
// в теле должен с ним совпадать. Пользователь с действующей подпиской
// получает 409.
package foruser

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/saas-starter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

// Service создание checkout-сессии для существующего пользователя.
type Service interface {
	CreateCheckoutForExistingUser(ctx context.Context, plan signup.Plan, userID, email string) (string, error)
}

// Request входные данные. UserID, если задан, должен совпадать с текущим пользователем.
type Request struct {
	Plan   string `json:"plan" validate:"omitempty,oneof=starter pro"`
	UserID string `json:"userId"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// Handler обрабатывает POST /api/v1/checkout/user.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис оформления подписки
	validate *validator.Validate // Валидатор для проверки входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает POST /api/v1/checkout/user.
//
// Ответы: 200 с {url}, 401 без токена, 403 для чужого userId,
// 404 если пользователь не найден, 409 при действующей подписке.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.foruser"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := middlewarectx.UserIDFrom(r.Context())
	if userID == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

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
	if req.UserID != "" && req.UserID != userID {
		log.Warn("checkout requested for another user", slog.String("user_id", userID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	}
	if req.Plan == "" {
		req.Plan = string(signup.PlanStarter)
	}
	plan, err := signup.ParsePlan(req.Plan)
	if err != nil {
		apierr.Render(w, r, log, err)
		return
	}

	url, err := h.service.CreateCheckoutForExistingUser(r.Context(), plan, userID, req.Email)
	if err != nil {
		apierr.Render(w, r, log, err)
		return
	}

	log.Info("checkout session created", slog.String("user_id", userID), slog.String("plan", string(plan)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"url": url}))
}
