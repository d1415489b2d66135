// Package cookie хранит идентификатор незавершённой регистрации в подписанной cookie.
package cookie

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	// PendingName имя cookie с идентификатором незавершённой регистрации.
	PendingName = "pending_signup_id"
	// PendingMaxAge время жизни cookie, совпадает со сроком жизни регистрации.
	PendingMaxAge = 24 * time.Hour
)

// PendingCookie подписывает и проверяет cookie незавершённой регистрации.
type PendingCookie struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewPendingCookie создаёт cookie с ключом подписи hashKey и, если задан, ключом шифрования blockKey.
func NewPendingCookie(hashKey, blockKey []byte, secure bool) *PendingCookie {
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(PendingMaxAge.Seconds()))
	return &PendingCookie{codec: codec, secure: secure}
}

// Set записывает идентификатор в ответ.
func (c *PendingCookie) Set(w http.ResponseWriter, pendingID string) error {
	const op = "cookie.Set"

	encoded, err := c.codec.Encode(PendingName, pendingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	http.SetCookie(w, c.build(encoded, int(PendingMaxAge.Seconds())))
	return nil
}

// Get возвращает идентификатор из запроса. Пустая строка, если cookie нет или подпись неверна.
func (c *PendingCookie) Get(r *http.Request) string {
	raw, err := r.Cookie(PendingName)
	if err != nil {
		return ""
	}
	var id string
	if err := c.codec.Decode(PendingName, raw.Value, &id); err != nil {
		return ""
	}
	return id
}

// Clear удаляет cookie.
func (c *PendingCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.build("", -1))
}

func (c *PendingCookie) build(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     PendingName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
