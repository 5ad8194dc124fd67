package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/storage"
	"github.com/magabrotheeeer/user-management/internal/storage/memory"
	"github.com/magabrotheeeer/user-management/internal/storage/storagetest"
)

func TestMemoryStorage(t *testing.T) {
	storagetest.Run(t, func(_ *testing.T) storage.Repository {
		return memory.New()
	})
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	repo := memory.New()
	acc := storagetest.NewAccount("copy@example.com", models.RoleUser)
	require.NoError(t, repo.Create(context.Background(), acc))

	got, err := repo.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	got.Role = models.RoleAdmin

	again, err := repo.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, again.Role)
}

func TestMemoryStorage_ConcurrentSignupsSameEmail(t *testing.T) {
	repo := memory.New()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := storagetest.NewAccount("race@example.com", models.RoleUser)
			acc.FullName = fmt.Sprintf("racer %d", i)
			errs <- repo.Create(context.Background(), acc)
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
}

func TestMemoryStorage_ListNegativeOffset(t *testing.T) {
	repo := memory.New()
	require.NoError(t, repo.Create(context.Background(), storagetest.NewAccount("neg@example.com", models.RoleUser)))

	items, err := repo.List(context.Background(), -10, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}
