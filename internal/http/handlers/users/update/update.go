// Package update меняет профиль текущей учётной записи.
//
// Пустые поля запроса оставляют прежние значения. Роль и статус так поменять нельзя.
package update

import (
	"context"
	"encoding/json"
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

// Request — изменяемые поля профиля.
type Request struct {
	FullName string `json:"fullName,omitempty" example:"Ann B. Example"`
	Email    string `json:"email,omitempty" example:"ann.b@example.com"`
	Password string `json:"password,omitempty" example:"n3wPass!"`
}

// Service описывает обновление профиля.
type Service interface {
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Account, error)
}

// Handler обрабатывает PUT /api/users/profile.
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
// @Summary Изменение профиля
// @Description Меняет имя, email и пароль. Пустые поля не меняются.
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новые значения"
// @Success 200 {object} models.Projection
// @Failure 400 {object} response.MessageResponse "Email занят или слабый пароль"
// @Failure 401 {object} response.MessageResponse
// @Failure 404 {object} response.MessageResponse
// @Router /users/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.Status(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), current.ID, models.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		log.Info("failed to update profile", sl.AccountID(current.ID), sl.Err(err))
		response.Error(w, r, err)
		return
	}

	log.Info("profile updated", sl.AccountID(current.ID))
	render.JSON(w, r, updated.Project())
}
