// Package accounts реализует операции с профилем и администрирование учётных записей.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Параметры постраничного вывода.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Repository описывает операции хранилища, которые нужны сервису.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (*models.Account, error)
	SetStatus(ctx context.Context, id string, status models.Status) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
}

// PasswordChanger меняет пароль с проверкой политики.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, accountID, newPassword string) error
}

// EventPublisher доставляет события учётных записей.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AccountEvent) error
}

// Service работает с профилями и статусами учётных записей.
type Service struct {
	log       *slog.Logger
	repo      Repository
	passwords PasswordChanger
	publisher EventPublisher
	now       func() time.Time
}

// New создаёт сервис учётных записей.
func New(log *slog.Logger, repo Repository, passwords PasswordChanger, publisher EventPublisher) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		passwords: passwords,
		publisher: publisher,
		now:       time.Now,
	}
}

// Profile возвращает учётную запись по ID.
func (s *Service) Profile(ctx context.Context, id string) (*models.Account, error) {
	const op = "accounts.Profile"

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// UpdateProfile меняет имя, email и пароль. Пустые поля остаются прежними.
// Роль и статус здесь не меняются.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Account, error) {
	const op = "accounts.UpdateProfile"

	if upd.Password != "" {
		if err := password.Validate(upd.Password); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrPolicy, err)
		}
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fullName := orDefault(upd.FullName, current.FullName)
	email := orDefault(upd.Email, current.Email)

	updated := current
	if fullName != current.FullName || email != current.Email {
		updated, err = s.repo.UpdateProfile(ctx, id, fullName, email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if upd.Password != "" {
		if err = s.passwords.ChangePassword(ctx, id, upd.Password); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return updated, nil
}

// List возвращает страницу учётных записей. Некорректные page и limit
// заменяются значениями по умолчанию, limit ограничен MaxLimit.
func (s *Service) List(ctx context.Context, page, limit int) (*models.Page, error) {
	const op = "accounts.List"

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	result := &models.Page{
		Items:      []models.Projection{},
		Total:      total,
		Page:       page,
		TotalPages: int(totalPages),
	}
	// страница за пределами списка: смещение не считаем, оно может переполниться
	if int64(page) > totalPages {
		return result, nil
	}

	items, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, a := range items {
		result.Items = append(result.Items, a.Project())
	}
	return result, nil
}

// SetStatus активирует или деактивирует учётную запись targetID.
// Статус администратора и собственный статус менять нельзя.
func (s *Service) SetStatus(ctx context.Context, actorID, targetID string, status models.Status) error {
	const op = "accounts.SetStatus"

	if _, err := models.ParseStatus(string(status)); err != nil {
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrValidation, err)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if target.ID == actorID {
		return fmt.Errorf("%s: cannot change own status: %w", op, apperr.ErrForbidden)
	}
	if target.IsAdmin() {
		return fmt.Errorf("%s: admin status is immutable: %w", op, apperr.ErrForbidden)
	}

	if err = s.repo.SetStatus(ctx, targetID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := models.AccountEvent{
		Type:      models.EventAccountStatusChanged,
		AccountID: target.ID,
		Email:     target.Email,
		Role:      target.Role,
		Status:    status,
		ActorID:   actorID,
		At:        s.now().UTC(),
	}
	if err = s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("failed to publish account event", sl.AccountID(target.ID), sl.Err(err))
	}
	return nil
}
