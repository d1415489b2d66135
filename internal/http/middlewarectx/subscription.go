package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-starter/internal/http/response"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// SubscriptionGate ищет действующую подписку пользователя.
type SubscriptionGate interface {
	ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// RequireActiveSubscription пропускает только пользователей с действующей подпиской.
// Должен стоять после JWTMiddleware.
func RequireActiveSubscription(log *slog.Logger, gate SubscriptionGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFrom(r.Context())
			if userID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			sub, err := gate.ActiveSubscription(r.Context(), userID)
			if err != nil {
				log.Error("failed to get subscription status", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if sub == nil {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("active subscription required"))
				return
			}

			ctx := context.WithValue(r.Context(), Subscription, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
