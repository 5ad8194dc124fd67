// Package profile отдаёт профиль текущей учётной записи.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-management/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Service описывает чтение профиля.
type Service interface {
	Profile(ctx context.Context, id string) (*models.Account, error)
}

// Handler обрабатывает GET /api/users/profile.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Профиль
// @Description Возвращает профиль владельца токена без хэша пароля.
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Projection
// @Failure 401 {object} response.MessageResponse
// @Failure 403 {object} response.MessageResponse "Учётная запись деактивирована"
// @Failure 404 {object} response.MessageResponse
// @Router /users/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	current, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		log.Error("no account in context")
		response.Error(w, r, apperr.ErrUnauthenticated)
		return
	}

	account, err := h.service.Profile(r.Context(), current.ID)
	if err != nil {
		log.Error("failed to read profile", sl.AccountID(current.ID), sl.Err(err))
		response.Error(w, r, err)
		return
	}

	render.JSON(w, r, account.Project())
}
