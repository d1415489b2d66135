// Package dto описывает представления моделей в ответах API.
package dto

import (
	"time"

	"github.com/magabrotheeeer/saas-starter/internal/models"
)

// User пользователь в ответе API.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	Role          string `json:"role"`
}

// Subscription подписка в ответе API.
type Subscription struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	PeriodEnd         *time.Time `json:"periodEnd,omitempty"`
	TrialEnd          *time.Time `json:"trialEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

// PendingSignup незавершённая регистрация в ответе админского API.
type PendingSignup struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	Plan      string    `json:"plan,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromUser строит представление пользователя.
func FromUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Role:          u.Role,
	}
}

// FromSubscription строит представление подписки.
func FromSubscription(s *models.Subscription) *Subscription {
	if s == nil {
		return nil
	}
	return &Subscription{
		Plan:              s.Plan,
		Status:            s.Status,
		PeriodEnd:         s.PeriodEnd,
		TrialEnd:          s.TrialEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
}

// FromPendingSignups строит представления регистраций без секретов.
func FromPendingSignups(list []*models.PendingSignup) []PendingSignup {
	result := make([]PendingSignup, 0, len(list))
	for _, p := range list {
		provider := models.ProviderCredential
		if p.IsOAuth() {
			provider = p.OAuthProvider
		}
		result = append(result, PendingSignup{
			ID:        p.ID,
			Email:     p.Email,
			Name:      p.Name,
			Provider:  provider,
			Plan:      p.Plan,
			ExpiresAt: p.ExpiresAt,
			CreatedAt: p.CreatedAt,
		})
	}
	return result
}
