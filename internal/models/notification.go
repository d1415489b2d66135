package models

import "time"

// WelcomeMessage сообщение в очередь уведомлений о завершённой регистрации.
type WelcomeMessage struct {
	UserID   string     `json:"user_id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Plan     string     `json:"plan"`
	TrialEnd *time.Time `json:"trial_end,omitempty"`
}
