package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/saas-starter/internal/cache"
	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/metrics"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
	"github.com/magabrotheeeer/saas-starter/internal/rabbitmq"
	"github.com/magabrotheeeer/saas-starter/internal/storage"
)

// CompletionResult итог завершения оплаты.
type CompletionResult struct {
	UserID           string
	Email            string
	Name             string
	Plan             string
	Provider         string // Способ входа созданного пользователя, пусто для существующего
	AlreadyCompleted bool
	Created          bool // Пользователь создан этим вызовом
	TrialEnd         *time.Time
}

// CompleteCheckout сверяет оплаченную checkout-сессию с локальным состоянием.
// Повторные вызовы с тем же sessionID безопасны: пользователь и подписка создаются один раз.
//
// Для сессии существующего пользователя (metadata.user_id) наличие подписки
// считается завершением, только если это та же подписка Stripe или прежняя
// подписка ещё действует. Отменённая или истёкшая подписка не мешает оформить
// новую: создаётся отдельная запись.
func (s *Service) CompleteCheckout(ctx context.Context, sessionID string) (*CompletionResult, error) {
	const op = "signup.CompleteCheckout"

	res, err := s.completeCheckout(ctx, sessionID)
	if err != nil {
		metrics.CheckoutCompletions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.AlreadyCompleted {
		metrics.CheckoutCompletions.WithLabelValues(metrics.OutcomeAlreadyCompleted).Inc()
		return res, nil
	}
	metrics.CheckoutCompletions.WithLabelValues(metrics.OutcomeCreated).Inc()
	s.afterCompletion(ctx, *res)
	return res, nil
}

func (s *Service) completeCheckout(ctx context.Context, sessionID string) (*CompletionResult, error) {
	if sessionID == "" {
		return nil, ErrInvalidCheckoutSession
	}
	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid() {
		return nil, ErrPaymentNotCompleted
	}

	userID := session.Metadata[MetadataUserID]
	pendingID := session.Metadata[MetadataPendingSignupID]
	var lockKey string
	switch {
	case userID != "":
		lockKey = userLockKey(userID)
	case pendingID != "":
		lockKey = pendingLockKey(pendingID)
	default:
		return nil, ErrInvalidCheckoutSession
	}
	if session.Subscription == nil {
		return nil, ErrInvalidCheckoutSession
	}
	plan := session.Metadata[MetadataPlan]
	if plan == "" {
		plan = string(PlanStarter)
	}

	res := &CompletionResult{Plan: plan}
	var expiredID string
	err = s.repo.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.Lock(ctx, lockKey); err != nil {
			return err
		}

		var user *models.User
		if userID != "" {
			user, err = tx.GetUserByID(ctx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrUserNotFound
			}
			existing, err := tx.GetSubscriptionByReferenceID(ctx, user.ID)
			if err != nil {
				return err
			}
			if sameOrActive(existing, session, s.now()) {
				res.AlreadyCompleted = true
			}
		} else {
			pending, err := tx.GetPendingSignup(ctx, pendingID)
			if err != nil {
				return err
			}
			if pending != nil && pending.Expired(s.now()) {
				expiredID = pending.ID
				pending = nil
			}
			if pending == nil {
				user, err = s.userByCustomerEmail(ctx, tx, session)
				if err != nil {
					return err
				}
				if user == nil {
					return ErrSignupSessionExpired
				}
				res.AlreadyCompleted = true
			} else {
				user, err = s.completePendingTx(ctx, tx, pending)
				if err != nil {
					return err
				}
				res.Created = true
				res.Provider = pending.OAuthProvider
				if res.Provider == "" {
					res.Provider = models.ProviderCredential
				}
			}
		}

		res.UserID = user.ID
		res.Email = user.Email
		res.Name = user.Name
		if res.AlreadyCompleted {
			return nil
		}

		sub := subscriptionFromSession(session, user.ID, plan, s.now())
		res.TrialEnd = sub.TrialEnd
		if err := tx.InsertSubscription(ctx, sub); err != nil {
			return err
		}
		if session.CustomerID != "" {
			return tx.UpdateUserStripeCustomerID(ctx, user.ID, session.CustomerID)
		}
		return nil
	})
	if expiredID != "" {
		s.evictExpired(ctx, expiredID)
	}
	if err != nil {
		if !errors.Is(err, ErrSignupSessionExpired) && !errors.Is(err, ErrUserNotFound) {
			s.log.Error("checkout completion failed", slog.String("session_id", sessionID), sl.Err(err))
		}
		return nil, err
	}
	return res, nil
}

func (s *Service) userByCustomerEmail(ctx context.Context, tx storage.Tx, session *paymentprovider.CheckoutSession) (*models.User, error) {
	email := NormalizeEmail(session.CustomerEmail)
	if email == "" {
		return nil, nil
	}
	return tx.GetUserByEmail(ctx, email)
}

// sameOrActive сообщает, что подписка пользователя уже отражает эту сессию
// или всё ещё действует. Закончившаяся подписка не мешает оформить новую.
func sameOrActive(existing *models.Subscription, session *paymentprovider.CheckoutSession, now time.Time) bool {
	if existing == nil {
		return false
	}
	if existing.StripeSubscriptionID == session.Subscription.ID {
		return true
	}
	return existing.IsActive(now)
}

func subscriptionFromSession(session *paymentprovider.CheckoutSession, userID, plan string, now time.Time) models.Subscription {
	ps := session.Subscription
	return models.Subscription{
		ID:                   uuid.NewString(),
		Plan:                 plan,
		ReferenceID:          userID,
		StripeCustomerID:     session.CustomerID,
		StripeSubscriptionID: ps.ID,
		Status:               ps.Status,
		PeriodStart:          fromUnix(ps.CurrentPeriodStart),
		PeriodEnd:            fromUnix(ps.CurrentPeriodEnd),
		CancelAtPeriodEnd:    ps.CancelAtPeriodEnd,
		Seats:                1,
		TrialStart:           fromUnix(ps.TrialStart),
		TrialEnd:             fromUnix(ps.TrialEnd),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func fromUnix(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// afterCompletion выполняет побочные эффекты после фиксации транзакции.
// Ошибки только логируются: подписка уже создана.
func (s *Service) afterCompletion(ctx context.Context, res CompletionResult) {
	log := s.log.With(slog.String("user_id", res.UserID))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.ActiveSubscriptionKey(res.UserID)); err != nil {
			log.Warn("failed to invalidate subscription cache", sl.Err(err))
		}
	}
	if s.notifier != nil {
		msg := models.WelcomeMessage{
			UserID:   res.UserID,
			Email:    res.Email,
			Name:     res.Name,
			Plan:     res.Plan,
			TrialEnd: res.TrialEnd,
		}
		if err := s.notifier.Publish(rabbitmq.WelcomeRoutingKey, msg); err != nil {
			log.Warn("failed to publish welcome message", sl.Err(err))
		}
	}
	if res.Created {
		for _, h := range s.hooks {
			h(ctx, res)
		}
	}
	log.Info("checkout completed", slog.String("plan", res.Plan), slog.Bool("created", res.Created))
}
