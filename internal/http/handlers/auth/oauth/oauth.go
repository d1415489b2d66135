// Package oauth реализует HTTP-обработчики входа через внешних провайдеров.
//
// Begin перенаправляет на провайдера, Callback завершает вход: существующий
// пользователь получает JWT во фрагменте адреса, новый попадает на страницу
// тарифов с cookie отложенной регистрации.
package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/services/auth"
)

// Service завершение OAuth-входа.
type Service interface {
	CompleteOAuth(ctx context.Context, gu goth.User) (*auth.OAuthResult, error)
}

// Cookie запись идентификатора регистрации.
type Cookie interface {
	Set(w http.ResponseWriter, pendingID string) error
}

// Handler обрабатывает GET /api/v1/auth/{provider} и /callback.
type Handler struct {
	log      *slog.Logger                                                    // Логгер для записи операций и ошибок
	service  Service                                                         // Сервис аутентификации
	cookie   Cookie                                                          // Cookie незавершённой регистрации
	baseURL  string                                                          // Адрес фронтенда для редиректов
	begin    func(w http.ResponseWriter, r *http.Request)                    // Редирект на провайдера, подменяется в тестах
	complete func(w http.ResponseWriter, r *http.Request) (goth.User, error) // Обмен кода на профиль, подменяется в тестах
}

// New создает новый экземпляр Handler поверх gothic.
func New(log *slog.Logger, service Service, cookie Cookie, baseURL string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		baseURL:  baseURL,
		begin:    gothic.BeginAuthHandler,
		complete: gothic.CompleteUserAuth,
	}
}

func withProvider(r *http.Request) *http.Request {
	return gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
}

// Begin начинает вход через провайдера.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	h.begin(w, withProvider(r))
}

// Callback завершает вход через провайдера.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.oauth.callback"

	provider := chi.URLParam(r, "provider")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("provider", provider),
	)

	gu, err := h.complete(w, withProvider(r))
	if err != nil {
		log.Warn("provider rejected authorization", sl.Err(err))
		h.redirect(w, r, "/sign-in?error=oauth")
		return
	}

	res, err := h.service.CompleteOAuth(r.Context(), gu)
	switch {
	case errors.Is(err, auth.ErrBanned):
		h.redirect(w, r, "/sign-in?error=banned")
		return
	case errors.Is(err, auth.ErrEmailNotVerified):
		log.Warn("provider email not verified")
		h.redirect(w, r, "/sign-in?error=unverified_email")
		return
	case err != nil:
		log.Error("failed to complete oauth", sl.Err(err))
		h.redirect(w, r, "/sign-in?error=oauth")
		return
	}

	if res.Pending != nil {
		if err := h.cookie.Set(w, res.Pending.ID); err != nil {
			log.Error("failed to set pending cookie", sl.Err(err))
			h.redirect(w, r, "/sign-in?error=oauth")
			return
		}
		log.Info("oauth signup deferred until payment")
		h.redirect(w, r, "/pricing")
		return
	}

	log.Info("oauth sign-in", slog.String("user_id", res.Session.User.ID))
	h.redirect(w, r, "/dashboard#token="+url.QueryEscape(res.Session.Token))
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.baseURL+path, http.StatusFound)
}
