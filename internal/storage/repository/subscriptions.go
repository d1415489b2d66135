package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

const subscriptionColumns = `id, plan, reference_id, stripe_customer_id, stripe_subscription_id,
			      status, period_start, period_end, cancel_at_period_end, seats,
			      trial_start, trial_end, created_at, updated_at`

// InsertSubscription сохраняет подписку пользователя.
func (q *Queries) InsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.InsertSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := q.db.ExecContext(ctx, query,
		sub.ID, sub.Plan, sub.ReferenceID, nullString(sub.StripeCustomerID),
		nullString(sub.StripeSubscriptionID), sub.Status, nullTime(sub.PeriodStart),
		nullTime(sub.PeriodEnd), sub.CancelAtPeriodEnd, sub.Seats, nullTime(sub.TrialStart),
		nullTime(sub.TrialEnd), sub.CreatedAt, sub.UpdatedAt,
	); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetSubscriptionByReferenceID возвращает последнюю подписку пользователя или nil.
func (q *Queries) GetSubscriptionByReferenceID(ctx context.Context, referenceID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByReferenceID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	s := &models.Subscription{}
	var customerID, subscriptionID sql.NullString
	var periodStart, periodEnd, trialStart, trialEnd sql.NullTime
	err := q.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
			  WHERE reference_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`, referenceID,
	).Scan(&s.ID, &s.Plan, &s.ReferenceID, &customerID, &subscriptionID, &s.Status,
		&periodStart, &periodEnd, &s.CancelAtPeriodEnd, &s.Seats, &trialStart, &trialEnd,
		&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}

	s.StripeCustomerID = customerID.String
	s.StripeSubscriptionID = subscriptionID.String
	s.PeriodStart = timePtr(periodStart)
	s.PeriodEnd = timePtr(periodEnd)
	s.TrialStart = timePtr(trialStart)
	s.TrialEnd = timePtr(trialEnd)
	return s, nil
}
