package pendingsignups

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error) {
	args := m.Called(ctx, limit, offset)
	list, _ := args.Get(0).([]*models.PendingSignup)
	return list, args.Error(1)
}

func (m *ServiceMock) DeletePendingSignup(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *ServiceMock) CleanupExpiredPendingSignups(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newRouter(svc Service) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})), svc)
	r := chi.NewRouter()
	r.Get("/pending-signups", h.List)
	r.Delete("/pending-signups/{id}", h.Delete)
	r.Post("/pending-signups/cleanup", h.Cleanup)
	return r
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got["data"]
}

func TestHandler_List(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := new(ServiceMock)
	svc.On("ListPendingSignups", mock.Anything, 10, 20).Return([]*models.PendingSignup{
		{ID: "p1", Email: "a@example.com", Name: "A", PasswordHash: "secret", ExpiresAt: now, CreatedAt: now},
		{ID: "p2", Email: "b@example.com", Name: "B", OAuthProvider: "github", OAuthAccessToken: "tok", ExpiresAt: now, CreatedAt: now},
	}, nil).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pending-signups?limit=10&offset=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "tok")
	data := decodeData(t, rec).([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "credential", data[0].(map[string]any)["provider"])
	assert.Equal(t, "github", data[1].(map[string]any)["provider"])
	svc.AssertExpectations(t)
}

func TestHandler_ListInvalidLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(ServiceMock)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pending-signups?limit=1000", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		deleted    bool
		err        error
		wantStatus int
	}{
		{name: "deleted", deleted: true, wantStatus: http.StatusOK},
		{name: "absent", wantStatus: http.StatusNotFound},
		{name: "storage error", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("DeletePendingSignup", mock.Anything, "p1").Return(tt.deleted, tt.err).Once()

			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/pending-signups/p1", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Cleanup(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("CleanupExpiredPendingSignups", mock.Anything).Return(int64(3), nil).Once()

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pending-signups/cleanup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"deleted": float64(3)}, decodeData(t, rec))
	svc.AssertExpectations(t)
}
