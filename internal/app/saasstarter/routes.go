package saasstarter

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/saas-starter/internal/http/cookie"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/admin/pendingsignups"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/auth/oauth"
	checkoutcomplete "github.com/magabrotheeeer/saas-starter/internal/http/handlers/checkout/complete"
	checkoutcreate "github.com/magabrotheeeer/saas-starter/internal/http/handlers/checkout/create"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/checkout/foruser"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/health"
	signupcreate "github.com/magabrotheeeer/saas-starter/internal/http/handlers/signup/create"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/signup/oauthlink"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/signup/pending"
	"github.com/magabrotheeeer/saas-starter/internal/http/handlers/webhook/stripe"
	"github.com/magabrotheeeer/saas-starter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/permissions"
	authservice "github.com/magabrotheeeer/saas-starter/internal/services/auth"
	"github.com/magabrotheeeer/saas-starter/internal/services/signup"
	subservice "github.com/magabrotheeeer/saas-starter/internal/services/subscription"
)

// Services зависимости обработчиков.
type Services struct {
	Signup       *signup.Service
	Auth         *authservice.Service
	Subscription *subservice.Service
	Provider     *paymentprovider.Client
	Cookie       *cookie.PendingCookie
	Limiter      *rate.Limiter
	Checks       map[string]health.Check
	BaseURL      string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	oauthHandler := oauth.New(logger, s.Auth, s.Cookie, s.BaseURL)
	pendingHandler := pending.New(logger, s.Signup, s.Cookie)
	adminHandler := pendingsignups.New(logger, s.Signup)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))
			r.Post("/signup", signupcreate.New(logger, s.Signup, s.Cookie).ServeHTTP)
			r.Post("/signup/oauth/link", oauthlink.New(logger, s.Signup, s.Cookie).ServeHTTP)
			r.Get("/signup/pending", pendingHandler.Get)
			r.Delete("/signup/pending", pendingHandler.Cancel)
			r.Post("/checkout", checkoutcreate.New(logger, s.Signup, s.Cookie).ServeHTTP)
			r.Post("/checkout/complete", checkoutcomplete.New(logger, s.Signup, s.Cookie).ServeHTTP)
			r.Post("/auth/sign-in/email", login.New(logger, s.Auth).ServeHTTP)
			r.Get("/auth/{provider}", oauthHandler.Begin)
			r.Get("/auth/{provider}/callback", oauthHandler.Callback)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))
			r.Post("/checkout/user", foruser.New(logger, s.Signup).ServeHTTP)

			r.With(middlewarectx.RequireActiveSubscription(logger, s.Subscription)).
				Get("/dashboard", dashboard.New(logger).ServeHTTP)

			r.Route("/admin/pending-signups", func(r chi.Router) {
				r.With(middlewarectx.RequirePermission(logger, permissions.ResourcePendingSignup, permissions.ActionList)).
					Get("/", adminHandler.List)
				r.With(middlewarectx.RequirePermission(logger, permissions.ResourcePendingSignup, permissions.ActionDelete)).
					Delete("/{id}", adminHandler.Delete)
				r.With(middlewarectx.RequirePermission(logger, permissions.ResourcePendingSignup, permissions.ActionCleanup)).
					Post("/cleanup", adminHandler.Cleanup)
			})
		})

		// Вебхук провайдера (без аутентификации и лимита)
		r.Post("/webhooks/stripe", stripe.New(logger, s.Provider, s.Signup).ServeHTTP)
	})

	r.Get("/health", health.New(logger, s.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
