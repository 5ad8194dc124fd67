// Package models содержит доменную модель учётной записи пользователя:
// данные профиля, хэш пароля, роль, статус и время последнего входа.
// Структуры используются в бизнес‑логике, хранилищах и HTTP‑слое.
package models

import (
	"fmt"
	"time"
)

// Role — роль учётной записи. Допустимы только значения RoleUser и RoleAdmin.
type Role string

const (
	// RoleUser — обычный пользователь.
	RoleUser Role = "user"
	// RoleAdmin — администратор, имеет доступ к админ‑панели.
	RoleAdmin Role = "admin"
)

// ParseRole разбирает строку в Role и возвращает ошибку для неизвестных значений.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Status — состояние учётной записи.
type Status string

const (
	// StatusActive — учётная запись активна, вход разрешён.
	StatusActive Status = "active"
	// StatusInactive — учётная запись деактивирована администратором.
	StatusInactive Status = "inactive"
)

// ParseStatus разбирает строку в Status и возвращает ошибку для неизвестных значений.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Account представляет зарегистрированную учётную запись.
type Account struct {
	ID           string     `json:"id"`        // Неизменяемый идентификатор (UUID)
	FullName     string     `json:"fullName"`  // Отображаемое имя
	Email        string     `json:"email"`     // Уникальный логин
	PasswordHash string     `json:"-"`         // bcrypt‑хэш, наружу не отдаётся
	Role         Role       `json:"role"`      // Назначается при создании
	Status       Status     `json:"status"`    // active по умолчанию
	LastLogin    *time.Time `json:"lastLogin"` // nil, пока не было входа
	CreatedAt    time.Time  `json:"createdAt"`
}

// IsAdmin сообщает, является ли учётная запись администратором.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsActive сообщает, разрешён ли вход для учётной записи.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Projection — публичное представление учётной записи без хэша пароля.
type Projection struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Status    Status     `json:"status,omitempty"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Project возвращает публичное представление учётной записи.
func (a *Account) Project() Projection {
	p := Projection{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		Role:      a.Role,
		Status:    a.Status,
		LastLogin: a.LastLogin,
	}
	if !a.CreatedAt.IsZero() {
		createdAt := a.CreatedAt
		p.CreatedAt = &createdAt
	}
	return p
}

// ProfileUpdate описывает изменения профиля. Пустое значение означает «не менять».
type ProfileUpdate struct {
	FullName string
	Email    string
	Password string
}

// Page — страница списка учётных записей.
type Page struct {
	Items      []Projection
	Total      int64
	Page       int
	TotalPages int
}

// EventType — тип события учётной записи, он же routing key в брокере.
type EventType string

// Типы событий.
const (
	EventAccountCreated       EventType = "account.created"
	EventAccountStatusChanged EventType = "account.status_changed"
)

// AccountEvent публикуется после регистрации и смены статуса.
type AccountEvent struct {
	Type      EventType `json:"type"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	ActorID   string    `json:"actorId,omitempty"`
	At        time.Time `json:"at"`
}
