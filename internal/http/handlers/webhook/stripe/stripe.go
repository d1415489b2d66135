// Package stripe реализует приём вебхуков платёжного провайдера.
//
// Событие checkout.session.completed передаётся в сверку оплаты, остальные
// события подтверждаются без обработки. Ошибки на стороне клиента (неоплаченная
// или чужая сессия) подтверждаются кодом 200, чтобы провайдер не повторял
// доставку; внутренние ошибки возвращают 500, и доставка будет повторена.
package stripe

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

// MaxBodyBytes максимальный размер тела вебхука.
const MaxBodyBytes = 64 << 10

// SignatureHeader заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

// Parser проверка подписи и разбор события.
type Parser interface {
	ParseWebhook(payload []byte, signature string) (*paymentprovider.WebhookEvent, error)
}

// Service сверка оплаты.
type Service interface {
	CompleteCheckout(ctx context.Context, sessionID string) (*signup.CompletionResult, error)
}

// Handler обрабатывает POST /api/v1/webhooks/stripe.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	parser  Parser       // Проверка подписи и разбор события
	service Service      // Сверка оплаченной сессии
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, parser Parser, service Service) *Handler {
	return &Handler{
		log:     log,
		parser:  parser,
		service: service,
	}
}

// ServeHTTP обрабатывает POST /api/v1/webhooks/stripe.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.stripe"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	event, err := h.parser.ParseWebhook(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		log.Warn("webhook rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}
	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", event.Type))

	if event.Type != paymentprovider.EventCheckoutSessionCompleted || event.SessionID == "" {
		log.Debug("webhook event ignored")
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"received": true}))
		return
	}

	res, err := h.service.CompleteCheckout(r.Context(), event.SessionID)
	if err != nil {
		if status, _ := apierr.Status(err); status >= http.StatusInternalServerError {
			log.Error("failed to complete checkout from webhook", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}
		log.Info("webhook checkout not completed", sl.Err(err))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"received": true}))
		return
	}

	log.Info("checkout completed from webhook",
		slog.String("user_id", res.UserID),
		slog.Bool("already_completed", res.AlreadyCompleted),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"received": true}))
}

