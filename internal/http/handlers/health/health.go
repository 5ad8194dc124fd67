// Package health отвечает на проверку доступности сервиса.
package health

import (
	"net/http"

	"github.com/go-chi/render"
)

// Handler обрабатывает GET /.
type Handler struct{}

// New создаёт Handler.
func New() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "API is running...")
}
