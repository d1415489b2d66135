// Package create реализует HTTP-обработчик создания checkout-сессии
// для незавершённой регистрации из cookie.
//
// Обработчик принимает необязательный план (starter по умолчанию), берёт
// идентификатор регистрации из подписанной cookie и возвращает адрес страницы
// оплаты. Если регистрация пропала или истекла, cookie удаляется, чтобы клиент
// начал регистрацию заново.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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

// Service создание checkout-сессии.
type Service interface {
	CreateCheckoutSession(ctx context.Context, pendingID string, plan signup.Plan) (string, error)
}

// Cookie доступ к cookie с идентификатором регистрации.
type Cookie interface {
	Get(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// Request входные данные. Пустой план означает starter.
type Request struct {
	Plan string `json:"plan" validate:"omitempty,oneof=starter pro"`
}

// Handler обрабатывает POST /api/v1/checkout.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис оформления подписки
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

// ServeHTTP обрабатывает POST /api/v1/checkout.
//
// Ответы: 200 с {url}, 400 без регистрации в cookie, 410 для истёкшей
// регистрации, 422 при неизвестном плане.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
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
	if req.Plan == "" {
		req.Plan = string(signup.PlanStarter)
	}
	plan, err := signup.ParsePlan(req.Plan)
	if err != nil {
		apierr.Render(w, r, log, err)
		return
	}

	url, err := h.service.CreateCheckoutSession(r.Context(), h.cookie.Get(r), plan)
	if err != nil {
		if errors.Is(err, signup.ErrSignupExpired) {
			h.cookie.Clear(w)
		}
		apierr.Render(w, r, log, err)
		return
	}

	log.Info("checkout session created", slog.String("plan", string(plan)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"url": url}))
}
