// Package storagetest содержит общий набор проверок для реализаций storage.Repository.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/storage"
)

// NewAccount возвращает тестовую учётную запись с уникальным ID.
func NewAccount(email string, role models.Role) *models.Account {
	return &models.Account{
		ID:           uuid.NewString(),
		FullName:     "Test " + email,
		Email:        email,
		PasswordHash: "$2a$04$hashedpassword",
		Role:         role,
		Status:       models.StatusActive,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Run прогоняет проверки контракта на хранилище, которое создаёт newRepo.
// newRepo должен возвращать пустое хранилище.
func Run(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		acc := NewAccount("t@example.com", models.RoleUser)
		require.NoError(t, repo.Create(ctx, acc))

		byID, err := repo.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.Email, byID.Email)
		assert.Equal(t, acc.FullName, byID.FullName)
		assert.Equal(t, acc.PasswordHash, byID.PasswordHash)
		assert.Equal(t, models.RoleUser, byID.Role)
		assert.Equal(t, models.StatusActive, byID.Status)
		assert.Nil(t, byID.LastLogin)

		byEmail, err := repo.GetByEmail(ctx, acc.Email)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewAccount("dup@example.com", models.RoleUser)))

		err := repo.Create(ctx, NewAccount("dup@example.com", models.RoleUser))
		assert.ErrorIs(t, err, apperr.ErrConflict)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("email is case-sensitive as stored", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewAccount("Case@example.com", models.RoleUser)))

		_, err := repo.GetByEmail(ctx, "case@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.ErrorIs(t, repo.SetStatus(ctx, uuid.NewString(), models.StatusInactive), apperr.ErrNotFound)
		assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.NewString(), "h"), apperr.ErrNotFound)
		assert.ErrorIs(t, repo.TouchLastLogin(ctx, uuid.NewString(), time.Now()), apperr.ErrNotFound)
		_, err = repo.UpdateProfile(ctx, uuid.NewString(), "x", "x@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("update profile", func(t *testing.T) {
		repo := newRepo(t)
		acc := NewAccount("old@example.com", models.RoleUser)
		other := NewAccount("taken@example.com", models.RoleUser)
		require.NoError(t, repo.Create(ctx, acc))
		require.NoError(t, repo.Create(ctx, other))

		updated, err := repo.UpdateProfile(ctx, acc.ID, "New Name", "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.FullName)
		assert.Equal(t, "new@example.com", updated.Email)

		_, err = repo.GetByEmail(ctx, "old@example.com")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = repo.UpdateProfile(ctx, acc.ID, "New Name", "taken@example.com")
		assert.ErrorIs(t, err, apperr.ErrConflict)

		stored, err := repo.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", stored.Email)
	})

	t.Run("update password", func(t *testing.T) {
		repo := newRepo(t)
		acc := NewAccount("pw@example.com", models.RoleUser)
		require.NoError(t, repo.Create(ctx, acc))
		require.NoError(t, repo.UpdatePassword(ctx, acc.ID, "$2a$04$newhash"))

		stored, err := repo.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$04$newhash", stored.PasswordHash)
	})

	t.Run("set status", func(t *testing.T) {
		repo := newRepo(t)
		user := NewAccount("user@example.com", models.RoleUser)
		admin := NewAccount("admin@example.com", models.RoleAdmin)
		require.NoError(t, repo.Create(ctx, user))
		require.NoError(t, repo.Create(ctx, admin))

		require.NoError(t, repo.SetStatus(ctx, user.ID, models.StatusInactive))
		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInactive, stored.Status)

		err = repo.SetStatus(ctx, admin.ID, models.StatusInactive)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		stored, err = repo.GetByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, stored.Status)
		assert.Equal(t, models.RoleAdmin, stored.Role)
	})

	t.Run("touch last login", func(t *testing.T) {
		repo := newRepo(t)
		acc := NewAccount("login@example.com", models.RoleUser)
		require.NoError(t, repo.Create(ctx, acc))

		at := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, repo.TouchLastLogin(ctx, acc.ID, at))

		stored, err := repo.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLogin)
		assert.WithinDuration(t, at, *stored.LastLogin, time.Millisecond)
	})

	t.Run("pagination", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Now().UTC().Truncate(time.Millisecond)
		for i := range 25 {
			acc := NewAccount(fmt.Sprintf("u%02d@example.com", i), models.RoleUser)
			acc.CreatedAt = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, repo.Create(ctx, acc))
		}

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)

		first, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, first, 10)
		assert.Equal(t, "u00@example.com", first[0].Email)

		third, err := repo.List(ctx, 20, 10)
		require.NoError(t, err)
		require.Len(t, third, 5)
		assert.Equal(t, "u20@example.com", third[0].Email)

		beyond, err := repo.List(ctx, 90, 10)
		require.NoError(t, err)
		assert.Empty(t, beyond)
	})
}
