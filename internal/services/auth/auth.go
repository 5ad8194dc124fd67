// Package auth содержит регистрацию, вход и работу с токенами сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/jwt"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Repository описывает операции хранилища, которые нужны сервису.
type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// EventPublisher доставляет события учётных записей во внешние системы.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AccountEvent) error
}

// NoopPublisher отбрасывает события. Используется, когда брокер не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, models.AccountEvent) error { return nil }

// Session — результат успешной регистрации или входа.
type Session struct {
	Account *models.Account
	Token   string
}

// Service отвечает за регистрацию, вход и проверку токенов.
type Service struct {
	log       *slog.Logger
	repo      Repository
	maker     jwt.Maker
	publisher EventPublisher
	admins    map[string]struct{}
	cost      int
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет часы, по которым ставятся createdAt и lastLogin.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher задаёт получателя событий.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithAdminEmails задаёт email, которые при регистрации получают роль admin.
// Сравнение без учёта регистра.
func WithAdminEmails(emails []string) Option {
	return func(s *Service) {
		for _, e := range emails {
			if e = strings.TrimSpace(e); e != "" {
				s.admins[strings.ToLower(e)] = struct{}{}
			}
		}
	}
}

// WithBcryptCost задаёт стоимость bcrypt.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// New создаёт сервис аутентификации.
func New(log *slog.Logger, repo Repository, maker jwt.Maker, opts ...Option) *Service {
	s := &Service{
		log:       log,
		repo:      repo,
		maker:     maker,
		publisher: NoopPublisher{},
		admins:    make(map[string]struct{}),
		cost:      password.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) roleFor(email string) models.Role {
	if _, ok := s.admins[strings.ToLower(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, event models.AccountEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("failed to publish account event",
			slog.String("type", string(event.Type)), sl.AccountID(event.AccountID), sl.Err(err))
	}
}

// RegisterAccount создаёт учётную запись со статусом active и сразу выпускает токен.
// Роль admin получают только адреса из списка администраторов.
func (s *Service) RegisterAccount(ctx context.Context, fullName, email, rawPassword string) (*Session, error) {
	const op = "auth.RegisterAccount"

	if blank(fullName, email, rawPassword) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}
	if err := password.Validate(rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrPolicy, err)
	}

	hash, err := password.GetHash(rawPassword, s.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
		Status:       models.StatusActive,
		CreatedAt:    s.now().UTC(),
	}
	if err = s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.IssueToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, models.AccountEvent{
		Type:      models.EventAccountCreated,
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Status:    account.Status,
		At:        account.CreatedAt,
	})
	return &Session{Account: account, Token: token}, nil
}

// Authenticate проверяет email и пароль. Для неизвестного email и неверного
// пароля возвращается одна и та же ошибка ErrAuth.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Authenticate"

	if blank(email, rawPassword) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrAuth)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrAuth)
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrInactive)
	}

	now := s.now().UTC()
	if err = s.repo.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	account.LastLogin = &now

	token, err := s.IssueToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Account: account, Token: token}, nil
}

// IssueToken выпускает токен сессии для accountID.
func (s *Service) IssueToken(accountID string) (string, error) {
	token, err := s.maker.GenerateToken(accountID)
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}
	return token, nil
}

// VerifyToken проверяет подпись и срок действия и возвращает ID учётной записи.
func (s *Service) VerifyToken(token string) (string, error) {
	claims, err := s.maker.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("auth.VerifyToken: %w: %w", apperr.ErrAuth, err)
	}
	return claims.AccountID(), nil
}

// ChangePassword заменяет пароль, новый пароль проходит ту же политику, что и при регистрации.
func (s *Service) ChangePassword(ctx context.Context, accountID, newPassword string) error {
	const op = "auth.ChangePassword"

	if err := password.Validate(newPassword); err != nil {
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrPolicy, err)
	}
	hash, err := password.GetHash(newPassword, s.cost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.repo.UpdatePassword(ctx, accountID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
