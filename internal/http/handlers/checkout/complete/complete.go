// Package complete реализует HTTP-обработчик завершения оплаты после
// возврата пользователя со страницы платёжного провайдера.
//
// Идентификатор checkout-сессии передаётся в сверку, которая создаёт
// пользователя и подписку не более одного раза. Повторный вызов для уже
// сверенной сессии отвечает успехом с флагом alreadyCompleted. После успешной
// сверки cookie незавершённой регистрации больше не нужна и удаляется.
package complete

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

// Service завершение checkout-сессии.
type Service interface {
	CompleteCheckout(ctx context.Context, sessionID string) (*signup.CompletionResult, error)
}

// Cookie удаление cookie регистрации.
type Cookie interface {
	Clear(w http.ResponseWriter)
}

// Request входные данные.
type Request struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// Handler обрабатывает POST /api/v1/checkout/complete.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сверка оплаченной сессии
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

// ServeHTTP обрабатывает POST /api/v1/checkout/complete.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.complete"

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

	res, err := h.service.CompleteCheckout(r.Context(), req.SessionID)
	if err != nil {
		apierr.Render(w, r, log, err)
		return
	}
	h.cookie.Clear(w)

	log.Info("checkout completed",
		slog.String("user_id", res.UserID),
		slog.Bool("already_completed", res.AlreadyCompleted),
	)
	data := map[string]any{
		"success": true,
		"userId":  res.UserID,
	}
	if res.AlreadyCompleted {
		data["alreadyCompleted"] = true
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
