// Package response содержит вспомогательные функции для формирования
// JSON‑ответов HTTP‑обработчиков. Ошибки всегда имеют вид {"message": "..."}.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/user-management/internal/lib/apperr"
)

// MessageResponse — тело ответа с сообщением. Используется и для ошибок,
// и для успешных операций без данных.
type MessageResponse struct {
	Message string `json:"message" example:"User not found"`
}

// Message возвращает MessageResponse с переданным текстом.
func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// Error пишет ответ для доменной ошибки: статус из apperr.HTTPStatus,
// текст из apperr.Message. Детали внутренних ошибок клиенту не отдаются.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, apperr.HTTPStatus(err))
	render.JSON(w, r, Message(apperr.Message(err)))
}

// Status пишет ответ с произвольным статусом и сообщением.
func Status(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Message(msg))
}

// ValidationError формирует сообщение по ошибкам валидации.
// Если не заполнены только обязательные поля, сообщение совпадает с apperr.ErrValidation.
func ValidationError(errs validator.ValidationErrors) MessageResponse {
	var errsMsgs []string
	onlyRequired := true

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			onlyRequired = false
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			onlyRequired = false
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	if onlyRequired {
		return Message(apperr.Message(apperr.ErrValidation))
	}
	return Message(strings.Join(errsMsgs, ", "))
}
