package report

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers run report routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/runs/{model}/{strategy}", func(r chi.Router) {
		r.Get("/evaluation", h.GetEvaluation)
		r.Get("/report", h.GetReport)
	})
}
