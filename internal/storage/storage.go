// Package storage описывает хранилище учётных записей и выбирает его
// реализацию по конфигурации: MongoDB, PostgreSQL или память процесса.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/user-management/internal/config"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/storage/memory"
	"github.com/magabrotheeeer/user-management/internal/storage/mongodb"
	"github.com/magabrotheeeer/user-management/internal/storage/postgresql"
)

// Repository — контракт хранилища учётных записей.
//
// Каждая изменяющая операция — одно атомарное обновление одной записи.
// Ошибки: apperr.ErrNotFound, apperr.ErrConflict (email занят),
// apperr.ErrForbidden (попытка сменить статус администратора),
// остальные оборачивают apperr.ErrStore.
type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetStatus(ctx context.Context, id string, status models.Status) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// New открывает хранилище, указанное в cfg.Driver.
func New(ctx context.Context, cfg config.Storage, log *slog.Logger) (Repository, error) {
	const op = "storage.New"

	switch cfg.Driver {
	case "mongodb":
		repo, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.OperationTimeout)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return repo, nil
	case "postgres":
		repo, err := postgresql.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return repo, nil
	case "memory":
		log.Warn("using in-memory storage, accounts are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}
}
