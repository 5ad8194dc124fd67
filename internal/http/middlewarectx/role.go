package middlewarectx

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// RequireRole пропускает запрос, только если роль текущей учётной записи входит в roles.
// Должен стоять после JWTMiddleware.
func RequireRole(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				log.Error("role check without authenticated account",
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Status(w, r, http.StatusUnauthorized, "Not authorized")
				return
			}
			if !slices.Contains(roles, account.Role) {
				log.Info("role not allowed",
					sl.AccountID(account.ID),
					slog.String("role", string(account.Role)),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Error(w, r, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
