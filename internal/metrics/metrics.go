// Package metrics объявляет прометеус-метрики процесса регистрации и оплаты.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// OutcomeCreated подписка создана этим вызовом
	OutcomeCreated = "created"
	// OutcomeAlreadyCompleted подписка уже была создана ранее
	OutcomeAlreadyCompleted = "already_completed"
	// OutcomeFailed завершение не удалось
	OutcomeFailed = "failed"
)

var (
	// PendingSignupsCreated число созданных незавершённых регистраций по способу входа.
	PendingSignupsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pending_signups_created_total",
		Help: "Number of pending signups created.",
	}, []string{"method"})

	// PendingSignupsExpired число удалённых просроченных регистраций.
	PendingSignupsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pending_signups_expired_total",
		Help: "Number of expired pending signups removed.",
	})

	// CheckoutSessionsCreated число выданных checkout-сессий по плану.
	CheckoutSessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Number of checkout sessions created.",
	}, []string{"plan"})

	// CheckoutCompletions результаты завершения оплаты.
	CheckoutCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_completions_total",
		Help: "Checkout completion attempts by outcome.",
	}, []string{"outcome"})

	// AdminPromotions число пользователей, получивших роль admin из списка администраторов.
	AdminPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_promotions_total",
		Help: "Number of users promoted to admin by the allow-list hook.",
	})
)
