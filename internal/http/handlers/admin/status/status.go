// Package status активирует и деактивирует учётные записи.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-management/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Request — новый статус.
type Request struct {
	Status string `json:"status" validate:"required,oneof=active inactive" example:"inactive"`
}

// Service описывает смену статуса.
type Service interface {
	SetStatus(ctx context.Context, actorID, targetID string, status models.Status) error
}

// Handler обрабатывает PATCH /api/admin/users/{id}/status.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Смена статуса
// @Description Меняет статус учётной записи. Статус администратора и свой собственный менять нельзя.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID учётной записи"
// @Param request body Request true "Новый статус"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.MessageResponse
// @Failure 403 {object} response.MessageResponse
// @Failure 404 {object} response.MessageResponse
// @Router /admin/users/{id}/status [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.AccountFromContext(r.Context())
	if !ok {
		log.Error("no account in context")
		response.Error(w, r, apperr.ErrUnauthenticated)
		return
	}
	targetID := chi.URLParam(r, "id")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.Status(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.Error(w, r, err)
		return
	}

	if err := h.service.SetStatus(r.Context(), actor.ID, targetID, models.Status(req.Status)); err != nil {
		log.Info("failed to set status", sl.AccountID(targetID), sl.Err(err))
		response.Error(w, r, err)
		return
	}

	log.Info("status updated", sl.AccountID(targetID), slog.String("status", req.Status))
	render.JSON(w, r, response.Message("User status updated successfully"))
}
