// Package login реализует HTTP-обработчик входа по почте и паролю.
//
// Декодирует и валидирует запрос, делегирует проверку пароля сервису
// аутентификации и возвращает JWT вместе с данными пользователя.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/dto"
	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/services/auth"
)

// Request структура входных данных для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log         *slog.Logger        // Логгер для записи операций и ошибок
	authService Service             // Сервис аутентификации
	validate    *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	SignInEmail(ctx context.Context, email, password string) (*auth.Session, error)
}

// New создает новый экземпляр Handler с указанными логгером и сервисом аутентификации.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP обрабатывает POST /api/v1/auth/sign-in/email.
//
// Ответы: 200 с {token, user}, 401 при неверной паре почта/пароль,
// 403 для заблокированного пользователя, 422 при невалидном запросе.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	session, err := h.authService.SignInEmail(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Info("invalid credentials")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(auth.ErrInvalidCredentials.Error()))
		return
	case errors.Is(err, auth.ErrBanned):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(auth.ErrBanned.Error()))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("login success", slog.String("user_id", session.User.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": session.Token,
		"user":  dto.FromUser(session.User),
	}))
}
