// Package list отдаёт администратору постраничный список учётных записей.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Response — страница списка.
type Response struct {
	Users      []models.Projection `json:"users"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}

// Service описывает получение страницы.
type Service interface {
	List(ctx context.Context, page, limit int) (*models.Page, error)
}

// Handler обрабатывает GET /api/admin/users.
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

// queryInt разбирает параметр запроса. Нечисловое значение даёт 0,
// сервис заменит его значением по умолчанию.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// ServeHTTP godoc
// @Summary Список учётных записей
// @Description Постраничный список, по умолчанию page=1 и limit=10.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы, не больше 100"
// @Success 200 {object} Response
// @Failure 401 {object} response.MessageResponse
// @Failure 403 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, err := h.service.List(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		log.Error("failed to list accounts", sl.Err(err))
		response.Error(w, r, err)
		return
	}

	log.Info("accounts listed", slog.Int("page", page.Page), slog.Int("count", len(page.Items)))
	render.JSON(w, r, Response{
		Users:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	})
}
