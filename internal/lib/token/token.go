// Package token генерирует случайные непрозрачные идентификаторы.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength длина идентификатора незавершённой регистрации.
const DefaultLength = 32

// Generate возвращает строку длины n из букв латиницы и цифр, выбранных равномерно.
func Generate(n int) (string, error) {
	const op = "token.Generate"
	if n <= 0 {
		return "", fmt.Errorf("%s: invalid length %d", op, n)
	}
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
