// Package storage описывает контракт хранилища, которым пользуется бизнес‑логика.
//
// Методы Get* возвращают (nil, nil), если запись не найдена.
// Методы Delete*/Update* возвращают число затронутых строк.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// Tx набор операций, доступных как внутри транзакции, так и вне её.
type Tx interface {
	// Lock берёт транзакционную advisory-блокировку по ключу.
	// Блокировка снимается при завершении транзакции.
	Lock(ctx context.Context, key string) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user models.User) error
	UpdateUserStripeCustomerID(ctx context.Context, userID, customerID string) error

	InsertAccount(ctx context.Context, account models.Account) error

	InsertPendingSignup(ctx context.Context, pending models.PendingSignup) error
	GetPendingSignup(ctx context.Context, id string) (*models.PendingSignup, error)
	GetPendingSignupByEmail(ctx context.Context, email string) (*models.PendingSignup, error)
	UpdatePendingSignupCheckout(ctx context.Context, id, plan, sessionID string) (int64, error)
	DeletePendingSignup(ctx context.Context, id string) (int64, error)
	DeletePendingSignupsByEmail(ctx context.Context, email string) (int64, error)
	DeleteExpiredPendingSignups(ctx context.Context, now time.Time) (int64, error)

	GetSubscriptionByReferenceID(ctx context.Context, referenceID string) (*models.Subscription, error)
	InsertSubscription(ctx context.Context, sub models.Subscription) error
}

// Repository хранилище с поддержкой транзакций.
// WithTx фиксирует транзакцию, если fn вернула nil, и откатывает иначе.
type Repository interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// ErrConflict возвращается при нарушении ограничения уникальности.
var ErrConflict = errors.New("storage: unique constraint violated")
