package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/jwt"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/services/auth"
)

const strongPassword = "secret1!"

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *RepoMock) GetByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *RepoMock) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Мок для EventPublisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, event models.AccountEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(repo auth.Repository, opts ...auth.Option) *auth.Service {
	maker := jwt.NewJWTMaker("test-secret", 24*time.Hour, jwt.WithClock(func() time.Time { return fixedNow }))
	opts = append([]auth.Option{
		auth.WithClock(func() time.Time { return fixedNow }),
		auth.WithBcryptCost(4),
	}, opts...)
	return auth.New(newNoopLogger(), repo, maker, opts...)
}

func storedAccount(t *testing.T, email string, status models.Status) *models.Account {
	t.Helper()
	hash, err := password.GetHash(strongPassword, 4)
	require.NoError(t, err)
	return &models.Account{
		ID:           "acc-1",
		FullName:     "Ann",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       status,
		CreatedAt:    fixedNow.Add(-time.Hour),
	}
}

func TestService_RegisterAccount(t *testing.T) {
	tests := []struct {
		name       string
		fullName   string
		email      string
		password   string
		setupMocks func(r *RepoMock)
		wantErr    error
		wantRole   models.Role
	}{
		{
			name:     "successful registration",
			fullName: "Ann",
			email:    "ann@example.com",
			password: strongPassword,
			setupMocks: func(r *RepoMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
					return a.Email == "ann@example.com" &&
						a.FullName == "Ann" &&
						a.PasswordHash != strongPassword &&
						a.Role == models.RoleUser &&
						a.Status == models.StatusActive &&
						a.ID != "" &&
						a.CreatedAt.Equal(fixedNow)
				})).Return(nil).Once()
			},
			wantRole: models.RoleUser,
		},
		{
			name:     "allow-listed email becomes admin",
			fullName: "Boss",
			email:    "Boss@Example.com",
			password: strongPassword,
			setupMocks: func(r *RepoMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
					return a.Role == models.RoleAdmin
				})).Return(nil).Once()
			},
			wantRole: models.RoleAdmin,
		},
		{
			name:       "missing full name",
			email:      "ann@example.com",
			password:   strongPassword,
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name:       "whitespace email",
			fullName:   "Ann",
			email:      "   ",
			password:   strongPassword,
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name:       "weak password",
			fullName:   "Ann",
			email:      "ann@example.com",
			password:   "abc",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrPolicy,
		},
		{
			name:       "password without symbol",
			fullName:   "Ann",
			email:      "ann@example.com",
			password:   "abcdefg1",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrPolicy,
		},
		{
			name:       "password longer than bcrypt limit",
			fullName:   "Ann",
			email:      "ann@example.com",
			password:   strings.Repeat("a", 80) + "1!",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrPolicy,
		},
		{
			name:     "duplicate email",
			fullName: "Ann",
			email:    "ann@example.com",
			password: strongPassword,
			setupMocks: func(r *RepoMock) {
				r.On("Create", mock.Anything, mock.Anything).Return(apperr.ErrConflict).Once()
			},
			wantErr: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := newService(repo, auth.WithAdminEmails([]string{" boss@example.com ", ""}))

			session, err := svc.RegisterAccount(context.Background(), tt.fullName, tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, session.Account.Role)
				assert.NotEmpty(t, session.Token)

				id, err := svc.VerifyToken(session.Token)
				require.NoError(t, err)
				assert.Equal(t, session.Account.ID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_RegisterAccount_PublishesEvent(t *testing.T) {
	repo := new(RepoMock)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.AccountEvent) bool {
		return e.Type == models.EventAccountCreated && e.Email == "ann@example.com" && e.AccountID != ""
	})).Return(errors.New("broker down")).Once()

	svc := newService(repo, auth.WithPublisher(pub))

	session, err := svc.RegisterAccount(context.Background(), "Ann", "ann@example.com", strongPassword)
	require.NoError(t, err, "publish failure must not fail signup")
	assert.NotNil(t, session)
	pub.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(t *testing.T, r *RepoMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			email:    "ann@example.com",
			password: strongPassword,
			setupMocks: func(t *testing.T, r *RepoMock) {
				r.On("GetByEmail", mock.Anything, "ann@example.com").
					Return(storedAccount(t, "ann@example.com", models.StatusActive), nil).Once()
				r.On("TouchLastLogin", mock.Anything, "acc-1", fixedNow).Return(nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "ann@example.com",
			password: "wrong1!xx",
			setupMocks: func(t *testing.T, r *RepoMock) {
				r.On("GetByEmail", mock.Anything, "ann@example.com").
					Return(storedAccount(t, "ann@example.com", models.StatusActive), nil).Once()
			},
			wantErr: apperr.ErrAuth,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: strongPassword,
			setupMocks: func(_ *testing.T, r *RepoMock) {
				r.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrAuth,
		},
		{
			name:     "deactivated account",
			email:    "ann@example.com",
			password: strongPassword,
			setupMocks: func(t *testing.T, r *RepoMock) {
				r.On("GetByEmail", mock.Anything, "ann@example.com").
					Return(storedAccount(t, "ann@example.com", models.StatusInactive), nil).Once()
			},
			wantErr: apperr.ErrInactive,
		},
		{
			name:       "missing password",
			email:      "ann@example.com",
			setupMocks: func(_ *testing.T, _ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name:     "store failure",
			email:    "ann@example.com",
			password: strongPassword,
			setupMocks: func(_ *testing.T, r *RepoMock) {
				r.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, apperr.ErrStore).Once()
			},
			wantErr: apperr.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(t, repo)
			svc := newService(repo)

			session, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				require.NotNil(t, session.Account.LastLogin)
				assert.Equal(t, fixedNow, *session.Account.LastLogin)
				assert.NotEmpty(t, session.Token)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetByEmail", mock.Anything, "ann@example.com").
		Return(storedAccount(t, "ann@example.com", models.StatusActive), nil).Once()
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperr.ErrNotFound).Once()
	svc := newService(repo)

	_, wrongPassword := svc.Authenticate(context.Background(), "ann@example.com", "wrong1!xx")
	_, unknownEmail := svc.Authenticate(context.Background(), "ghost@example.com", strongPassword)

	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, apperr.Message(wrongPassword), apperr.Message(unknownEmail))
}

func TestService_VerifyToken_Expiry(t *testing.T) {
	issuedAt := fixedNow
	current := issuedAt
	maker := jwt.NewJWTMaker("test-secret", 24*time.Hour, jwt.WithClock(func() time.Time { return current }))
	svc := auth.New(newNoopLogger(), new(RepoMock), maker)

	token, err := svc.IssueToken("acc-1")
	require.NoError(t, err)

	current = issuedAt.Add(23*time.Hour + 59*time.Minute)
	id, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)

	current = issuedAt.Add(24*time.Hour + time.Minute)
	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, apperr.ErrAuth)
}

func TestService_VerifyToken_Garbage(t *testing.T) {
	svc := newService(new(RepoMock))
	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestService_ChangePassword(t *testing.T) {
	t.Run("weak password rejected", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo)

		err := svc.ChangePassword(context.Background(), "acc-1", "short")
		require.ErrorIs(t, err, apperr.ErrPolicy)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too long password rejected", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newService(repo)

		err := svc.ChangePassword(context.Background(), "acc-1", strings.Repeat("a", 80)+"1!")
		require.ErrorIs(t, err, apperr.ErrPolicy)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hash round trip", func(t *testing.T) {
		repo := new(RepoMock)
		var stored string
		repo.On("UpdatePassword", mock.Anything, "acc-1", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { stored = args.String(2) }).
			Return(nil).Once()
		svc := newService(repo)

		require.NoError(t, svc.ChangePassword(context.Background(), "acc-1", "n3wPass!"))
		assert.NotEqual(t, "n3wPass!", stored)
		assert.NoError(t, password.CompareHash(stored, "n3wPass!"))
		assert.Error(t, password.CompareHash(stored, "other1!!"))
		repo.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("UpdatePassword", mock.Anything, "ghost", mock.Anything).Return(apperr.ErrNotFound).Once()
		svc := newService(repo)

		assert.ErrorIs(t, svc.ChangePassword(context.Background(), "ghost", "n3wPass!"), apperr.ErrNotFound)
	})
}
