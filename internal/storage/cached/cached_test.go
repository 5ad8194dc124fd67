package cached_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/cache"
	"github.com/magabrotheeeer/user-management/internal/config"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/storage"
	"github.com/magabrotheeeer/user-management/internal/storage/cached"
	"github.com/magabrotheeeer/user-management/internal/storage/memory"
	"github.com/magabrotheeeer/user-management/internal/storage/storagetest"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCached(t *testing.T) (*cached.Repository, *memory.Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)

	inner := memory.New()
	repo := cached.New(inner, c, time.Minute, newNoopLogger())
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo, inner, mr
}

func TestCachedStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository {
		repo, _, _ := newCached(t)
		return repo
	})
}

func TestCachedStorage_ReadsThrough(t *testing.T) {
	repo, _, mr := newCached(t)
	ctx := context.Background()

	acc := storagetest.NewAccount("cache@example.com", models.RoleUser)
	require.NoError(t, repo.Create(ctx, acc))
	assert.False(t, mr.Exists("account:"+acc.ID))

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Email, got.Email)
	assert.True(t, mr.Exists("account:"+acc.ID))

	again, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.PasswordHash, again.PasswordHash)
}

func TestCachedStorage_StatusChangeInvalidates(t *testing.T) {
	repo, _, mr := newCached(t)
	ctx := context.Background()

	acc := storagetest.NewAccount("deact@example.com", models.RoleUser)
	require.NoError(t, repo.Create(ctx, acc))
	_, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, acc.ID, models.StatusInactive))
	assert.False(t, mr.Exists("account:"+acc.ID))

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
}

func TestCachedStorage_RedisDownFallsBack(t *testing.T) {
	repo, _, mr := newCached(t)
	ctx := context.Background()

	acc := storagetest.NewAccount("down@example.com", models.RoleUser)
	require.NoError(t, repo.Create(ctx, acc))

	mr.SetError("LOADING redis is down")

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	require.NoError(t, repo.SetStatus(ctx, acc.ID, models.StatusInactive))
}

// readHookStorage вызывает afterRead один раз между чтением из хранилища и заполнением кэша.
type readHookStorage struct {
	*memory.Storage
	afterRead func(id string)
}

func (s *readHookStorage) GetByID(ctx context.Context, id string) (*models.Account, error) {
	a, err := s.Storage.GetByID(ctx, id)
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook(id)
	}
	return a, err
}

func TestCachedStorage_ConcurrentDeactivationNotOverwritten(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)

	inner := &readHookStorage{Storage: memory.New()}
	repo := cached.New(inner, c, time.Minute, newNoopLogger())
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	ctx := context.Background()

	acc := storagetest.NewAccount("race@example.com", models.RoleUser)
	require.NoError(t, repo.Create(ctx, acc))

	inner.afterRead = func(id string) {
		require.NoError(t, repo.SetStatus(ctx, id, models.StatusInactive))
	}

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status, "read started before the write")
	assert.False(t, mr.Exists("account:"+acc.ID))

	got, err = repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.True(t, mr.Exists("account:"+acc.ID))
}
