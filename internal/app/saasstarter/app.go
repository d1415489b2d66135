// Package saasstarter собирает HTTP-приложение: хранилище, кэш, брокер,
// платёжного провайдера, сервисы и маршруты.
package saasstarter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/saas-starter/internal/cache"
	"github.com/magabrotheeeer/saas-starter/internal/config"
	"github.com/magabrotheeeer/saas-starter/internal/http/cookie"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/health"
	"github.com/magabrotheeeer/saas-starter/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/migrations"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/rabbitmq"
	"github.com/magabrotheeeer/saas-starter/internal/services/adminrole"
	authservice "github.com/magabrotheeeer/saas-starter/internal/services/auth"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
	subservice "github.com/magabrotheeeer/saas-starter/internal/services/subscription"
	"github.com/magabrotheeeer/saas-starter/internal/storage/repository"
)

// App HTTP-приложение и его ресурсы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New поднимает зависимости и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.saasstarter.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db, cache: cacheRedis}

	provider := paymentprovider.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	signupService := signup.New(db, provider, signup.Config{
		BaseURL:        cfg.BaseURL,
		StarterPriceID: cfg.Stripe.StarterPriceID,
		ProPriceID:     cfg.Stripe.ProPriceID,
	}, logger).WithCache(cacheRedis)

	checks := map[string]health.Check{
		"postgres": func(ctx context.Context) error { return repository.CheckDatabaseReady(ctx, db) },
		"redis":    func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() },
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch = ch
		signupService.WithNotifier(rabbitmq.NewPublisher(ch))
		checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	} else {
		logger.Warn("rabbitmq url is empty, welcome notifications disabled")
	}

	dispatcher := authservice.NewDispatcher()
	dispatcher.Register(adminrole.New(cfg.AdminUserList, db, logger))

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewService(db, signupService, jwtMaker, dispatcher, logger)
	signupService.OnCompleted(authService.FireSignUp)

	secure := !cfg.IsLocal()
	providers := authservice.SetupProviders(cfg.OAuth, cfg.BaseURL, secure)
	logger.Info("oauth providers registered", slog.Any("providers", providers))

	var blockKey []byte
	if cfg.Cookie.BlockKey != "" {
		blockKey = []byte(cfg.Cookie.BlockKey)
	}
	pendingCookie := cookie.NewPendingCookie([]byte(cfg.Cookie.HashKey), blockKey, secure)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Signup:       signupService,
		Auth:         authService,
		Subscription: subservice.NewService(db, cacheRedis, logger),
		Provider:     provider,
		Cookie:       pendingCookie,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		Checks:       checks,
		BaseURL:      cfg.BaseURL,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Db.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
