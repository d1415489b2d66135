// Package models содержит доменные модели сервиса: пользователей, привязанные
// аккаунты, незавершённые регистрации и подписки.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

const (
	// RoleUser роль по умолчанию для новых пользователей
	RoleUser = "user"
	// RoleModerator роль модератора
	RoleModerator = "moderator"
	// RoleAdmin роль администратора
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID               string    // Уникальный идентификатор пользователя
	Name             string    // Отображаемое имя
	Email            string    // Электронная почта, уникальна
	EmailVerified    bool      // Подтверждена ли почта (true для OAuth-регистраций)
	Role             string    // Роль пользователя: user, moderator или admin
	Banned           bool      // Заблокирован ли пользователь
	BanReason        string    // Причина блокировки
	StripeCustomerID string    // Идентификатор покупателя у платёжного провайдера
	CreatedAt        time.Time // Дата создания
	UpdatedAt        time.Time // Дата последнего изменения
}
