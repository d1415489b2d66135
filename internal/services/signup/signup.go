// Package signup реализует отложенную регистрацию с оплатой: незавершённые
// регистрации, создание checkout-сессий и однократное завершение оплаты
// с созданием пользователя и подписки.
package signup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/config"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/storage"
)

const (
	// PendingSignupTTL время жизни незавершённой регистрации.
	PendingSignupTTL = 24 * time.Hour

	// MetadataPendingSignupID ключ метаданных checkout-сессии с идентификатором регистрации.
	MetadataPendingSignupID = "pending_signup_id"
	// MetadataUserID ключ метаданных checkout-сессии с идентификатором существующего пользователя.
	MetadataUserID = "user_id"
	// MetadataPlan ключ метаданных checkout-сессии с планом.
	MetadataPlan = "plan"
)

// Repository хранилище, с которым работает сервис.
type Repository interface {
	storage.Repository
	ListPendingSignups(ctx context.Context, limit, offset int) ([]*models.PendingSignup, error)
}

// PaymentProcessor платёжный провайдер.
type PaymentProcessor interface {
	CreateCheckoutSession(ctx context.Context, params paymentprovider.CheckoutParams) (*paymentprovider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*paymentprovider.CheckoutSession, error)
}

// Notifier публикует уведомления в брокер.
type Notifier interface {
	Publish(routingKey string, message any) error
}

// Cache кэш, из которого нужно вычищать устаревшие данные о подписке.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// CompletionHook вызывается после того, как завершение оплаты создало нового пользователя.
type CompletionHook func(ctx context.Context, res CompletionResult)

// Config настройки сервиса.
type Config struct {
	BaseURL        string
	StarterPriceID string
	ProPriceID     string
}

// Service сервис отложенной регистрации.
type Service struct {
	repo      Repository
	processor PaymentProcessor
	notifier  Notifier
	cache     Cache
	hooks     []CompletionHook
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт сервис. Notifier и Cache необязательны и подключаются через WithNotifier/WithCache.
func New(repo Repository, processor PaymentProcessor, cfg Config, log *slog.Logger) *Service {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		repo:      repo,
		processor: processor,
		cfg:       cfg,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNotifier подключает публикацию приветственных уведомлений.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithCache подключает инвалидацию кэша подписок.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// OnCompleted регистрирует хук, вызываемый после создания пользователя.
func (s *Service) OnCompleted(h CompletionHook) {
	s.hooks = append(s.hooks, h)
}

// NormalizeEmail приводит адрес к нижнему регистру без пробелов по краям.
func NormalizeEmail(email string) string {
	return config.NormalizeEmail(email)
}

func pendingLockKey(id string) string {
	return "pending:" + id
}

func pendingEmailLockKey(email string) string {
	return "pending-email:" + email
}

func userLockKey(id string) string {
	return "user:" + id
}
