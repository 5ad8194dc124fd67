// Package middlewarectx содержит HTTP middleware: проверку токена сессии,
// проверку роли, ограничение частоты запросов и сбор метрик.
//
// JWTMiddleware проверяет заголовок Authorization, загружает учётную запись
// из хранилища и кладёт её в контекст запроса. Деактивированная учётная
// запись получает 403 уже на следующем запросе, даже с действующим токеном.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// AccountKey — ключ для текущей учётной записи в контексте.
const AccountKey Key = "account"

// TokenVerifier проверяет токен сессии и возвращает ID учётной записи.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AccountLoader загружает учётную запись по ID.
type AccountLoader interface {
	Profile(ctx context.Context, id string) (*models.Account, error)
}

// WithAccount кладёт учётную запись в контекст.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// AccountFromContext достаёт учётную запись, положенную JWTMiddleware.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*models.Account)
	return account, ok && account != nil
}

// JWTMiddleware возвращает middleware, который пропускает запрос дальше только
// с действующим токеном активной учётной записи.
func JWTMiddleware(log *slog.Logger, verifier TokenVerifier, accounts AccountLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				response.Status(w, r, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			accountID, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.Status(w, r, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			account, err := accounts.Profile(r.Context(), accountID)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				log.Info("token refers to missing account", sl.AccountID(accountID))
				response.Status(w, r, http.StatusUnauthorized, "Not authorized, token failed")
				return
			case err != nil:
				log.Error("failed to load account", sl.AccountID(accountID), sl.Err(err))
				response.Error(w, r, err)
				return
			}

			if !account.IsActive() {
				log.Info("deactivated account rejected", sl.AccountID(accountID))
				response.Error(w, r, apperr.ErrInactive)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}
