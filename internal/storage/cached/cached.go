// Package cached оборачивает хранилище учётных записей кэшем в Redis.
//
// Кэшируется только чтение по ID, которое выполняется на каждом
// аутентифицированном запросе. Любое изменение записи удаляет её из кэша
// и увеличивает счётчик поколения. Чтение кладёт запись в кэш, только если
// поколение не менялось с начала чтения, поэтому деактивация видна уже
// на следующем запросе.
package cached

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/user-management/internal/cache"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/storage"
)

// entry — кэшируемое представление. В отличие от models.Account, хранит хэш пароля.
type entry struct {
	ID           string     `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toEntry(a *models.Account) entry {
	return entry{
		ID:           a.ID,
		FullName:     a.FullName,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		Status:       string(a.Status),
		LastLogin:    a.LastLogin,
		CreatedAt:    a.CreatedAt,
	}
}

func (e entry) account() (*models.Account, bool) {
	role, err := models.ParseRole(e.Role)
	if err != nil {
		return nil, false
	}
	status, err := models.ParseStatus(e.Status)
	if err != nil {
		return nil, false
	}
	return &models.Account{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Role:         role,
		Status:       status,
		LastLogin:    e.LastLogin,
		CreatedAt:    e.CreatedAt,
	}, true
}

// Repository реализует storage.Repository поверх другого хранилища.
type Repository struct {
	storage.Repository
	cache *cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт декоратор. Ошибки Redis не прерывают запрос: они логируются,
// а чтение идёт напрямую в хранилище.
func New(repo storage.Repository, c *cache.Cache, ttl time.Duration, log *slog.Logger) *Repository {
	return &Repository{Repository: repo, cache: c, ttl: ttl, log: log}
}

func key(id string) string {
	return "account:" + id
}

func genKey(id string) string {
	return "account:" + id + ":gen"
}

func (r *Repository) invalidate(ctx context.Context, id string) {
	if err := r.cache.InvalidateGeneration(ctx, key(id), genKey(id)); err != nil {
		r.log.Error("failed to invalidate cached account", sl.AccountID(id), sl.Err(err))
	}
}

// GetByID читает запись из кэша, при промахе из хранилища.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var e entry
	found, err := r.cache.Get(ctx, key(id), &e)
	if err != nil {
		r.log.Warn("cache read failed", sl.AccountID(id), sl.Err(err))
	}
	if found {
		if a, ok := e.account(); ok {
			return a, nil
		}
	}

	gen, genErr := r.cache.Generation(ctx, genKey(id))
	if genErr != nil {
		r.log.Warn("cache generation read failed", sl.AccountID(id), sl.Err(genErr))
	}

	a, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return a, nil
	}
	stored, err := r.cache.SetIfGeneration(ctx, key(id), genKey(id), gen, toEntry(a), r.ttl)
	if err != nil {
		r.log.Warn("cache write failed", sl.AccountID(id), sl.Err(err))
	} else if !stored {
		r.log.Debug("account changed during read, cache fill skipped", sl.AccountID(id))
	}
	return a, nil
}

// UpdateProfile обновляет запись и сбрасывает её кэш.
func (r *Repository) UpdateProfile(ctx context.Context, id, fullName, email string) (*models.Account, error) {
	a, err := r.Repository.UpdateProfile(ctx, id, fullName, email)
	r.invalidate(ctx, id)
	return a, err
}

// UpdatePassword обновляет хэш и сбрасывает кэш.
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	err := r.Repository.UpdatePassword(ctx, id, passwordHash)
	r.invalidate(ctx, id)
	return err
}

// SetStatus меняет статус и сбрасывает кэш.
func (r *Repository) SetStatus(ctx context.Context, id string, status models.Status) error {
	err := r.Repository.SetStatus(ctx, id, status)
	r.invalidate(ctx, id)
	return err
}

// TouchLastLogin записывает время входа и сбрасывает кэш.
func (r *Repository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	err := r.Repository.TouchLastLogin(ctx, id, at)
	r.invalidate(ctx, id)
	return err
}

// Close закрывает хранилище и клиент Redis.
func (r *Repository) Close(ctx context.Context) error {
	err := r.Repository.Close(ctx)
	if cerr := r.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
