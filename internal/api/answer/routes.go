package answer

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers answer routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/answers", h.AnswerQuestion)
}
