package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	answerapi "github.com/futig/mcq-reasoner/internal/api/answer"
	"github.com/futig/mcq-reasoner/internal/api/middleware"
	reportapi "github.com/futig/mcq-reasoner/internal/api/report"
	"github.com/futig/mcq-reasoner/internal/pkg/response"
)

// HealthCheck reports whether a backing dependency is usable
type HealthCheck func(ctx context.Context) error

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	answerHandler *answerapi.Handler,
	reportHandler *reportapi.Handler,
	health HealthCheck,
	requestTimeout time.Duration,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		response.Success(w, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		// inference can hold a request for several model round trips
		r.Use(chimiddleware.Timeout(requestTimeout))
		answerapi.RegisterRoutes(r, answerHandler)
		reportapi.RegisterRoutes(r, reportHandler)
	})

	return r
}
