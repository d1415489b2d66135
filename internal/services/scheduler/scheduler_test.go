package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) CleanupExpiredPendingSignups(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_RunOnce(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		err  error
		want int64
	}{
		{name: "removed", n: 3, want: 3},
		{name: "nothing", n: 0, want: 0},
		{name: "error", n: 0, err: errors.New("db down"), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := new(MockCleaner)
			cleaner.On("CleanupExpiredPendingSignups", mock.Anything).Return(tt.n, tt.err).Once()

			s := NewService(cleaner, time.Minute, newNoopLogger())
			assert.Equal(t, tt.want, s.RunOnce(context.Background()))
			cleaner.AssertExpectations(t)
		})
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	cleaner := new(MockCleaner)
	cleaner.On("CleanupExpiredPendingSignups", mock.Anything).Return(int64(1), nil)

	s := NewService(cleaner, 10*time.Millisecond, newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(cleaner.Calls) >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewService_DefaultInterval(t *testing.T) {
	s := NewService(new(MockCleaner), 0, newNoopLogger())
	assert.Equal(t, time.Hour, s.interval)
}
