package models

import "time"

// PendingSignup незавершённая регистрация, ожидающая оплаты.
//
// Запись содержит ровно один способ входа: хэш пароля либо OAuth-идентичность.
// После ExpiresAt запись считается отсутствующей.
type PendingSignup struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	OAuthProvider     string
	OAuthAccountID    string
	OAuthAccessToken  string
	OAuthRefreshToken string
	OAuthIDToken      string
	OAuthScope        string
	Plan              string // Заполняется при создании checkout-сессии
	StripeSessionID   string // Последняя выданная checkout-сессия
	ExpiresAt         time.Time
	CreatedAt         time.Time
}

// IsOAuth сообщает, пришла ли регистрация через внешнего провайдера.
func (p *PendingSignup) IsOAuth() bool {
	return p.OAuthProvider != ""
}

// Expired сообщает, истёк ли срок жизни записи на момент now.
// В момент, равный ExpiresAt, запись ещё действительна.
func (p *PendingSignup) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
