package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Profile(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProfileHandler(t *testing.T) {
	current := &models.Account{ID: "acc-1", Role: models.RoleUser, Status: models.StatusActive}

	t.Run("returns projection without password", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Profile", mock.Anything, "acc-1").Return(&models.Account{
			ID: "acc-1", FullName: "Ann", Email: "ann@example.com", PasswordHash: "$2a$10$secret",
			Role: models.RoleUser, Status: models.StatusActive,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req = req.WithContext(middlewarectx.WithAccount(req.Context(), current))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "$2a$10$secret")
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "ann@example.com", got["email"])
		assert.Equal(t, "active", got["status"])
		svc.AssertExpectations(t)
	})

	t.Run("account vanished", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Profile", mock.Anything, "acc-1").Return(nil, apperr.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req = req.WithContext(middlewarectx.WithAccount(req.Context(), current))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())
	})

	t.Run("no account in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(newNoopLogger(), new(ServiceMock)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
