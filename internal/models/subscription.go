package models

import "time"

const (
	// SubscriptionStatusActive оплаченная подписка
	SubscriptionStatusActive = "active"
	// SubscriptionStatusTrialing подписка в пробном периоде
	SubscriptionStatusTrialing = "trialing"
)

// Subscription запись о подписке пользователя, созданная по итогам оплаты.
// ReferenceID указывает на пользователя-владельца.
type Subscription struct {
	ID                   string
	Plan                 string
	ReferenceID          string
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	PeriodStart          *time.Time
	PeriodEnd            *time.Time
	CancelAtPeriodEnd    bool
	Seats                int
	TrialStart           *time.Time
	TrialEnd             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive сообщает, даёт ли подписка доступ на момент now:
// статус active или trialing и период ещё не закончился.
func (s *Subscription) IsActive(now time.Time) bool {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusTrialing {
		return false
	}
	return s.PeriodEnd == nil || s.PeriodEnd.After(now)
}
