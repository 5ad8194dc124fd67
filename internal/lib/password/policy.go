package password

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Symbols — набор спецсимволов, один из которых обязателен в пароле.
const Symbols = "!@#$%^&*"

// MinLength — минимальная длина пароля.
const MinLength = 8

// MaxLength — предел bcrypt в байтах, более длинный пароль хэшировать нельзя.
const MaxLength = 72

// ErrWeak возвращается Validate, если пароль не проходит политику.
var ErrWeak = errors.New("password must be 8+ chars and include a number & special char (!@#$%^&*)")

// ErrTooLong — частный случай ErrWeak для паролей длиннее MaxLength.
var ErrTooLong = fmt.Errorf("password must be at most %d bytes: %w", MaxLength, ErrWeak)

var allowed = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*]+$`)

// Validate проверяет пароль: не короче MinLength, хотя бы одна цифра,
// хотя бы один символ из Symbols, только разрешённые символы и не длиннее MaxLength.
func Validate(password string) error {
	if len(password) > MaxLength {
		return ErrTooLong
	}
	if len(password) < MinLength || !allowed.MatchString(password) {
		return ErrWeak
	}
	if !strings.ContainsAny(password, "0123456789") || !strings.ContainsAny(password, Symbols) {
		return ErrWeak
	}
	return nil
}
