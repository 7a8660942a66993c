// Package shortid генерирует короткие публичные идентификаторы постов.
package shortid

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// Length: 62^16 ≈ 4.7e28 вариантов
	Length      = 16
	maxAttempts = 8
	// байты >= rejectFrom отбрасываем, чтобы не было перекоса по модулю
	rejectFrom = 256 - 256%len(alphabet)
)

var ErrExhausted = errors.New("shortid: unable to generate unique id")

// New возвращает случайную alphanumeric-строку длины n.
func New(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("shortid: invalid length %d", n)
	}
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("shortid: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectFrom {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Unique генерирует id и проверяет его через exists, повторяя при коллизии.
// exists == nil означает «не проверять».
func Unique(n int, exists func(string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		id, err := New(n)
		if err != nil {
			return "", err
		}
		if exists == nil {
			return id, nil
		}
		taken, err := exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrExhausted
}

// Valid сообщает, мог ли id быть выдан New(Length).
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
