package models

import "time"

// ProviderCredential провайдер для входа по почте и паролю.
const ProviderCredential = "credential"

// Account связывает пользователя со способом входа.
// Для ProviderCredential в Password хранится bcrypt-хэш, для OAuth-провайдеров заполнены токены.
type Account struct {
	ID           string
	AccountID    string // Идентификатор у провайдера; для credential совпадает с UserID
	ProviderID   string
	UserID       string
	AccessToken  string
	RefreshToken string
	IDToken      string
	Scope        string
	Password     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
