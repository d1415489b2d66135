package create

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
)

// Service создание незавершённой регистрации.
type Service interface {
	CreatePendingSignup(ctx context.Context, name, email, password string) (*signup.PendingResult, error)
}

// Cookie запись идентификатора регистрации в cookie.
type Cookie interface {
	Set(w http.ResponseWriter, pendingID string) error
}
