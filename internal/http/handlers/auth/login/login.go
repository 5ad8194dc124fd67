// Package login реализует HTTP-обработчик входа по email и паролю.
//
// Для неизвестного email и неверного пароля ответ одинаковый,
// деактивированная учётная запись получает 403.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/services/auth"
)

// Request — учётные данные.
type Request struct {
	Email    string `json:"email" validate:"required" example:"ann@example.com"`
	Password string `json:"password" validate:"required" example:"secret1!"`
}

// User — краткое представление учётной записи в ответе на вход.
type User struct {
	ID        string      `json:"id"`
	FullName  string      `json:"fullName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	LastLogin *time.Time  `json:"lastLogin"`
}

// Response — тело успешного ответа.
type Response struct {
	Message string `json:"message" example:"Login successful"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Service описывает бизнес-логику входа.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Session, error)
}

// Handler обрабатывает POST /api/auth/login.
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
// @Summary Вход
// @Description Проверяет email и пароль, обновляет lastLogin и возвращает токен сессии.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учётные данные"
// @Success 200 {object} Response
// @Failure 400 {object} response.MessageResponse "Пустые поля или неверные учётные данные"
// @Failure 403 {object} response.MessageResponse "Учётная запись деактивирована"
// @Failure 500 {object} response.MessageResponse
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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
		log.Error("validator failed", sl.Err(err))
		response.Error(w, r, err)
		return
	}

	session, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			log.Error("login failed", sl.Err(err))
		} else {
			log.Info("login rejected", sl.Err(err))
		}
		response.Error(w, r, err)
		return
	}

	a := session.Account
	log.Info("login success", sl.AccountID(a.ID))
	render.JSON(w, r, Response{
		Message: "Login successful",
		Token:   session.Token,
		User: User{
			ID:        a.ID,
			FullName:  a.FullName,
			Email:     a.Email,
			Role:      a.Role,
			LastLogin: a.LastLogin,
		},
	})
}
