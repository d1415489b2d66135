// Package scheduler периодически удаляет просроченные незавершённые регистрации.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
)

// PendingCleaner удаляет просроченные регистрации и возвращает их число.
type PendingCleaner interface {
	CleanupExpiredPendingSignups(ctx context.Context) (int64, error)
}

// Service фоновая очистка.
type Service struct {
	cleaner  PendingCleaner
	interval time.Duration
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(cleaner PendingCleaner, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		cleaner:  cleaner,
		interval: interval,
		log:      log,
	}
}

// Run выполняет очистку сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("pending signup cleanup stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет одну очистку и возвращает число удалённых записей.
func (s *Service) RunOnce(ctx context.Context) int64 {
	n, err := s.cleaner.CleanupExpiredPendingSignups(ctx)
	if err != nil {
		s.log.Error("failed to cleanup expired pending signups", sl.Err(err))
		return 0
	}
	if n > 0 {
		s.log.Info("expired pending signups removed", slog.Int64("count", n))
	}
	return n
}
