// Package memory реализует хранилище учётных записей в памяти процесса.
// Используется для локального запуска и тестов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Storage хранит учётные записи в map под мьютексом.
type Storage struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func clone(a *models.Account) *models.Account {
	c := *a
	if a.LastLogin != nil {
		t := *a.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// Create сохраняет новую учётную запись.
func (s *Storage) Create(_ context.Context, account *models.Account) error {
	const op = "memory.Create"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[account.Email]; ok {
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	}
	if _, ok := s.byID[account.ID]; ok {
		return fmt.Errorf("%s: duplicate id: %w", op, apperr.ErrConflict)
	}
	s.byID[account.ID] = clone(account)
	s.byEmail[account.Email] = account.ID
	return nil
}

// GetByID возвращает учётную запись по ID.
func (s *Storage) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("memory.GetByID: %w", apperr.ErrNotFound)
	}
	return clone(a), nil
}

// GetByEmail возвращает учётную запись по email.
func (s *Storage) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("memory.GetByEmail: %w", apperr.ErrNotFound)
	}
	return clone(s.byID[id]), nil
}

// UpdateProfile меняет имя и email.
func (s *Storage) UpdateProfile(_ context.Context, id, fullName, email string) (*models.Account, error) {
	const op = "memory.UpdateProfile"
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if email != a.Email {
		if _, taken := s.byEmail[email]; taken {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrConflict)
		}
		delete(s.byEmail, a.Email)
		s.byEmail[email] = id
		a.Email = email
	}
	a.FullName = fullName
	return clone(a), nil
}

// UpdatePassword перезаписывает хэш пароля.
func (s *Storage) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("memory.UpdatePassword: %w", apperr.ErrNotFound)
	}
	a.PasswordHash = passwordHash
	return nil
}

// SetStatus меняет статус учётной записи, кроме администраторов.
func (s *Storage) SetStatus(_ context.Context, id string, status models.Status) error {
	const op = "memory.SetStatus"
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if a.IsAdmin() {
		return fmt.Errorf("%s: admin status is immutable: %w", op, apperr.ErrForbidden)
	}
	a.Status = status
	return nil
}

// TouchLastLogin записывает время последнего входа.
func (s *Storage) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("memory.TouchLastLogin: %w", apperr.ErrNotFound)
	}
	a.LastLogin = &at
	return nil
}

// List возвращает учётные записи в порядке создания.
func (s *Storage) List(_ context.Context, offset, limit int) ([]*models.Account, error) {
	s.mu.RLock()
	all := make([]*models.Account, 0, len(s.byID))
	for _, a := range s.byID {
		all = append(all, clone(a))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset < 0 || offset >= len(all) {
		return []*models.Account{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

// Count возвращает число учётных записей.
func (s *Storage) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

// Close ничего не делает.
func (s *Storage) Close(_ context.Context) error {
	return nil
}
