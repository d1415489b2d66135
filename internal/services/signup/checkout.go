package signup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/magabrotheeeer/saas-starter/internal/lib/sl"
	"github.com/magabrotheeeer/saas-starter/internal/metrics"
	"github.com/magabrotheeeer/saas-starter/internal/models"
	"github.com/magabrotheeeer/saas-starter/internal/paymentprovider"
)

const checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

func (s *Service) successURL() string {
	return s.cfg.BaseURL + "/checkout/success?session_id=" + checkoutSessionPlaceholder
}

func (s *Service) cancelURL() string {
	return s.cfg.BaseURL + "/pricing?canceled=true"
}

// CreateCheckoutSession открывает checkout-сессию для незавершённой регистрации.
// pendingID берётся только из подписанной cookie.
func (s *Service) CreateCheckoutSession(ctx context.Context, pendingID string, plan Plan) (string, error) {
	const op = "signup.CreateCheckoutSession"

	if pendingID == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoPendingSignup)
	}
	pending, err := s.GetPendingSignup(ctx, pendingID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if pending == nil {
		return "", fmt.Errorf("%s: %w", op, ErrSignupExpired)
	}

	session, err := s.processor.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		PriceID:         s.priceID(plan),
		CustomerEmail:   pending.Email,
		TrialPeriodDays: plan.TrialDays(),
		Metadata: map[string]string{
			MetadataPendingSignupID: pending.ID,
			MetadataPlan:            string(plan),
		},
		SuccessURL: s.successURL(),
		CancelURL:  s.cancelURL(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	metrics.CheckoutSessionsCreated.WithLabelValues(string(plan)).Inc()

	if err := s.UpdatePendingSignupPlan(ctx, pending.ID, plan, session.ID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout session created",
		slog.String("pending_id", pending.ID),
		slog.String("session_id", session.ID),
		slog.String("plan", string(plan)),
	)
	return session.URL, nil
}

// CreateCheckoutForExistingUser открывает checkout-сессию для уже созданного пользователя.
// Локальное состояние не меняется до завершения оплаты.
func (s *Service) CreateCheckoutForExistingUser(ctx context.Context, plan Plan, userID, email string) (string, error) {
	const op = "signup.CreateCheckoutForExistingUser"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	sub, err := s.repo.GetSubscriptionByReferenceID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if sub != nil && sub.Status == models.SubscriptionStatusActive {
		return "", fmt.Errorf("%s: %w", op, ErrAlreadySubscribed)
	}

	if email == "" {
		email = user.Email
	}
	session, err := s.processor.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		PriceID:         s.priceID(plan),
		CustomerEmail:   NormalizeEmail(email),
		TrialPeriodDays: plan.TrialDays(),
		Metadata: map[string]string{
			MetadataUserID: user.ID,
			MetadataPlan:   string(plan),
		},
		SuccessURL: s.successURL() + "&user_id=" + url.QueryEscape(user.ID),
		CancelURL:  s.cancelURL(),
	})
	if err != nil {
		s.log.Error("failed to create checkout session", slog.String("user_id", user.ID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	metrics.CheckoutSessionsCreated.WithLabelValues(string(plan)).Inc()
	return session.URL, nil
}
