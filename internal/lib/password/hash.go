// Package password реализует хеширование паролей и проверку их сложности.
//
// GetHash создает bcrypt-хеш пароля с заданной стоимостью и уникальной солью.
// CompareHash сравнивает bcrypt-хеш с введённым паролем за постоянное время.
// Validate проверяет пароль на соответствие политике сложности.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — стоимость bcrypt по умолчанию.
const DefaultCost = 10

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
//
// Стоимость вне допустимого диапазона bcrypt приводится к ближайшей границе,
// нулевая стоимость заменяется на DefaultCost.
func GetHash(password string, cost int) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), normalizeCost(cost))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func normalizeCost(cost int) int {
	switch {
	case cost == 0:
		return DefaultCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}
