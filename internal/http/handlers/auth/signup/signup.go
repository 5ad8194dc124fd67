// Package signup реализует HTTP-обработчик регистрации учётной записи.
//
// Успешная регистрация сразу выдаёт токен сессии, отдельный вход не нужен.
package signup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-management/internal/http/response"
	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
	"github.com/magabrotheeeer/user-management/internal/lib/sl"
	"github.com/magabrotheeeer/user-management/internal/models"
	"github.com/magabrotheeeer/user-management/internal/services/auth"
)

// Request — тело запроса на регистрацию.
type Request struct {
	FullName string `json:"fullName" validate:"required" example:"Ann Example"`
	Email    string `json:"email" validate:"required" example:"ann@example.com"`
	Password string `json:"password" validate:"required" example:"secret1!"`
}

// Response — тело успешного ответа.
type Response struct {
	ID       string      `json:"id"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Token    string      `json:"token"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	RegisterAccount(ctx context.Context, fullName, email, password string) (*auth.Session, error)
}

// Handler обрабатывает POST /api/auth/signup.
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
// @Summary Регистрация
// @Description Создаёт учётную запись и возвращает токен сессии.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные регистрации"
// @Success 201 {object} Response
// @Failure 400 {object} response.MessageResponse "Пустые поля, слабый пароль или email занят"
// @Failure 500 {object} response.MessageResponse
// @Router /auth/signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

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

	session, err := h.service.RegisterAccount(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			log.Error("signup failed", sl.Err(err))
		} else {
			log.Info("signup rejected", sl.Err(err))
		}
		response.Error(w, r, err)
		return
	}

	log.Info("account registered", sl.AccountID(session.Account.ID), slog.String("role", string(session.Account.Role)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		ID:       session.Account.ID,
		FullName: session.Account.FullName,
		Email:    session.Account.Email,
		Role:     session.Account.Role,
		Token:    session.Token,
	})
}
