// Package scheduler собирает процесс фоновой очистки просроченных регистраций.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/config"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/saas-starter/internal/services/scheduler"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
	"github.com/magabrotheeeer/saas-starter/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	db               *repository.Storage
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// платёжный провайдер очистке не нужен
	signupService := signup.New(db, nil, signup.Config{BaseURL: cfg.BaseURL}, logger)

	return &App{
		schedulerService: schedulerservice.NewService(signupService, cfg.Scheduler.PendingCleanupInterval, logger),
		db:               db,
		logger:           logger,
	}, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
