package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-starter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

func TestHandler_ServeHTTP(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	ctx := middlewarectx.WithUser(req.Context(), &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleUser})
	ctx = context.WithValue(ctx, middlewarectx.Subscription, &models.Subscription{
		Plan:      "pro",
		Status:    models.SubscriptionStatusActive,
		PeriodEnd: &end,
	})
	rec := httptest.NewRecorder()
	New(log).ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data struct {
			User         map[string]string `json:"user"`
			Subscription struct {
				Plan      string    `json:"plan"`
				Status    string    `json:"status"`
				PeriodEnd time.Time `json:"periodEnd"`
			} `json:"subscription"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, map[string]string{"id": "u1", "email": "a@example.com", "role": "user"}, got.Data.User)
	assert.Equal(t, "pro", got.Data.Subscription.Plan)
	assert.Equal(t, "active", got.Data.Subscription.Status)
	assert.True(t, end.Equal(got.Data.Subscription.PeriodEnd))
}
