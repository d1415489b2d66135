// Package apierr сопоставляет ошибки бизнес-логики HTTP-статусам и сообщениям для клиента.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

var statuses = []struct {
	err    error
	status int
}{
	{signup.ErrDuplicateAccount, http.StatusConflict},
	{signup.ErrAlreadySubscribed, http.StatusConflict},
	{signup.ErrNoPendingSignup, http.StatusBadRequest},
	{signup.ErrInvalidCheckoutSession, http.StatusBadRequest},
	{signup.ErrSignupExpired, http.StatusGone},
	{signup.ErrSignupSessionExpired, http.StatusGone},
	{signup.ErrNotFound, http.StatusNotFound},
	{signup.ErrUserNotFound, http.StatusNotFound},
	{signup.ErrPaymentNotCompleted, http.StatusPaymentRequired},
	{signup.ErrUnknownPlan, http.StatusUnprocessableEntity},
}

// Status возвращает HTTP-статус и сообщение для ошибки.
// Неизвестные ошибки становятся 500 без подробностей.
func Status(err error) (int, string) {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status, s.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// Render пишет ответ с ошибкой. Ошибки 5xx логируются на уровне Error, остальные на Info.
func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Info("request rejected", slog.Int("status", status), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}
