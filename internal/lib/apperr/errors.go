// Package apperr определяет таксономию доменных ошибок сервиса и их
// отображение в HTTP‑статусы и безопасные для клиента сообщения.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation — отсутствуют или некорректны входные данные.
	ErrValidation = errors.New("validation failed")
	// ErrPolicy — пароль не удовлетворяет политике сложности.
	ErrPolicy = errors.New("password policy violation")
	// ErrConflict — email уже занят.
	ErrConflict = errors.New("account already exists")
	// ErrAuth — неверные учётные данные при входе.
	ErrAuth = errors.New("invalid credentials")
	// ErrUnauthenticated — токен отсутствует, невалиден или просрочен.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — учётная запись деактивирована или недостаточно прав.
	ErrForbidden = errors.New("forbidden")
	// ErrInactive — учётная запись деактивирована. Частный случай ErrForbidden.
	ErrInactive = fmt.Errorf("account deactivated: %w", ErrForbidden)
	// ErrNotFound — учётная запись не найдена.
	ErrNotFound = errors.New("account not found")
	// ErrStore — сбой хранилища.
	ErrStore = errors.New("store failure")
)

// HTTPStatus возвращает HTTP‑статус для доменной ошибки.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPolicy),
		errors.Is(err, ErrConflict), errors.Is(err, ErrAuth):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает сообщение, которое можно показать клиенту.
// Детали внутренних ошибок наружу не попадают.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPolicy):
		return "Password must be 8+ chars and include a number & special char (!@#$%^&*)"
	case errors.Is(err, ErrConflict):
		return "User already exists"
	case errors.Is(err, ErrAuth):
		return "Invalid credentials"
	case errors.Is(err, ErrUnauthenticated):
		return "Not authorized"
	case errors.Is(err, ErrInactive):
		return "Account deactivated"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrNotFound):
		return "User not found"
	case errors.Is(err, ErrValidation):
		return "All fields are required"
	default:
		return "Internal server error"
	}
}
