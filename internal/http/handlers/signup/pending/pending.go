// Package pending реализует HTTP-обработчики чтения и отмены незавершённой
// регистрации, идентификатор которой лежит в подписанной cookie.
//
// Клиент узнаёт через Get, есть ли у браузера регистрация, ожидающая оплаты.
// Секреты (хэш пароля, OAuth-токены) в ответ не попадают. Cookie,
// указывающая на отсутствующую запись, удаляется.
package pending

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// Service чтение и удаление незавершённых регистраций.
type Service interface {
	GetPendingSignup(ctx context.Context, id string) (*models.PendingSignup, error)
	DeletePendingSignup(ctx context.Context, id string) (bool, error)
}

// Cookie cookie с идентификатором регистрации.
type Cookie interface {
	Get(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// View данные регистрации, которые видит клиент.
type View struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan,omitempty"`
}

// Handler обрабатывает GET и DELETE /api/v1/signup/pending.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Хранилище незавершённых регистраций
	cookie  Cookie       // Cookie незавершённой регистрации
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie Cookie) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookie:  cookie,
	}
}

// Get возвращает незавершённую регистрацию из cookie или null.
// Если cookie ссылается на отсутствующую запись, cookie удаляется.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signup.pending.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := h.cookie.Get(r)
	if id == "" {
		render.JSON(w, r, response.StatusOKWithData(nil))
		return
	}
	p, err := h.service.GetPendingSignup(r.Context(), id)
	if err != nil {
		log.Error("failed to get pending signup", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	if p == nil {
		h.cookie.Clear(w)
		render.JSON(w, r, response.StatusOKWithData(nil))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(View{ID: p.ID, Email: p.Email, Name: p.Name, Plan: p.Plan}))
}

// Cancel удаляет незавершённую регистрацию и cookie.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signup.pending.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	deleted := false
	if id := h.cookie.Get(r); id != "" {
		var err error
		deleted, err = h.service.DeletePendingSignup(r.Context(), id)
		if err != nil {
			log.Error("failed to delete pending signup", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}
	}
	h.cookie.Clear(w)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": deleted}))
}
