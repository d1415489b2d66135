package auth

import (
	"context"
	"strings"
	"sync"
)

const (
	// PathSignUpEmail путь события регистрации по почте и паролю.
	PathSignUpEmail = "/sign-up/email"
	// PathCallbackPrefix префикс путей событий OAuth-колбэка.
	PathCallbackPrefix = "/callback/"
)

// CallbackPath путь события OAuth-колбэка для провайдера.
func CallbackPath(provider string) string {
	return PathCallbackPrefix + provider
}

// IsSignUpOrCallback сообщает, относится ли путь к регистрации или OAuth-колбэку.
func IsSignUpOrCallback(path string) bool {
	return path == PathSignUpEmail || strings.HasPrefix(path, PathCallbackPrefix)
}

// Event событие успешной аутентификации.
type Event struct {
	Path   string
	UserID string
	Email  string
}

// Hook реакция на событие аутентификации. Ошибки хук обрабатывает сам.
type Hook interface {
	AfterAuth(ctx context.Context, e Event)
}

// HookFunc адаптер функции к Hook.
type HookFunc func(ctx context.Context, e Event)

// AfterAuth вызывает f.
func (f HookFunc) AfterAuth(ctx context.Context, e Event) {
	f(ctx, e)
}

// Dispatcher рассылает события аутентификации зарегистрированным хукам.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewDispatcher создаёт пустой диспетчер.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register добавляет хук.
func (d *Dispatcher) Register(h Hook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, h)
}

// Fire синхронно вызывает все хуки по порядку регистрации.
func (d *Dispatcher) Fire(ctx context.Context, e Event) {
	d.mu.RLock()
	hooks := append([]Hook(nil), d.hooks...)
	d.mu.RUnlock()
	for _, h := range hooks {
		h.AfterAuth(ctx, e)
	}
}
