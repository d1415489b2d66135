// Package subscription проверяет наличие действующей подписки с кешированием результата.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/cache"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// Repository чтение подписок пользователя.
type Repository interface {
	GetSubscriptionByReferenceID(ctx context.Context, referenceID string) (*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// cachedSubscription запись кеша. Found=false кешируется так же, как найденная подписка.
type cachedSubscription struct {
	Found        bool                 `json:"found"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// Service сервис проверки подписки.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// NewService создает сервис. cache может быть nil.
func NewService(repo Repository, c Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		log:   log,
		now:   time.Now,
	}
}

// ActiveSubscription возвращает действующую подписку пользователя или nil.
func (s *Service) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "subscription.ActiveSubscription"

	sub, err := s.latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil || !sub.IsActive(s.now()) {
		return nil, nil
	}
	return sub, nil
}

func (s *Service) latest(ctx context.Context, userID string) (*models.Subscription, error) {
	key := cache.ActiveSubscriptionKey(userID)
	if s.cache != nil {
		var cached cachedSubscription
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read subscription from cache", slog.String("key", key), sl.Err(err))
		} else if found {
			return cached.Subscription, nil
		}
	}

	sub, err := s.repo.GetSubscriptionByReferenceID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		entry := cachedSubscription{Found: sub != nil, Subscription: sub}
		if err := s.cache.Set(ctx, key, entry, cache.ActiveSubscriptionTTL); err != nil {
			s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
		}
	}
	return sub, nil
}
