package paymentprovider

const (
	// PaymentStatusPaid статус оплаченной checkout-сессии
	PaymentStatusPaid = "paid"
	// SessionStatusComplete статус завершённой checkout-сессии
	SessionStatusComplete = "complete"

	// EventCheckoutSessionCompleted событие вебхука о завершении checkout-сессии
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// CheckoutParams параметры создания checkout-сессии на подписку.
type CheckoutParams struct {
	PriceID         string
	CustomerEmail   string
	TrialPeriodDays int64 // 0 означает без пробного периода
	Metadata        map[string]string
	SuccessURL      string
	CancelURL       string
}

// CheckoutSession checkout-сессия в том виде, в котором она нужна бизнес‑логике.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	CustomerID    string
	CustomerEmail string
	Metadata      map[string]string
	Subscription  *Subscription
}

// Paid сообщает, что оплата прошла или сессия завершена.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.Status == SessionStatusComplete
}

// Subscription подписка, созданная checkout-сессией. Время в unix-секундах, 0 если не задано.
type Subscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	TrialStart         int64
	TrialEnd           int64
	CancelAtPeriodEnd  bool
}
