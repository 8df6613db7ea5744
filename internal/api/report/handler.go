package report

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
	"github.com/futig/mcq-reasoner/internal/pkg/logger"
	"github.com/futig/mcq-reasoner/internal/pkg/response"
)

type Handler struct {
	usecase ReportUsecase
}

func NewHandler(usecase ReportUsecase) *Handler {
	return &Handler{usecase: usecase}
}

func runKey(r *http.Request) (entity.RunKey, error) {
	key := entity.RunKey{
		Model:    chi.URLParam(r, "model"),
		Strategy: entity.Strategy(chi.URLParam(r, "strategy")),
		Name:     r.URL.Query().Get("name"),
	}
	if key.Model == "" || !key.Strategy.Valid() {
		return key, entity.ErrInvalidParameter
	}
	return key, nil
}

// GetEvaluation handles GET /runs/{model}/{strategy}/evaluation
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetEvaluation")

	key, err := runKey(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "unknown run model or strategy")
		return
	}

	ev, err := h.usecase.Evaluate(ctx, key)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.Success(w, ev)
}

// GetReport handles GET /runs/{model}/{strategy}/report?format=pdf|markdown|json
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetReport")

	key, err := runKey(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "unknown run model or strategy")
		return
	}

	format := formatter.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = formatter.FormatPDF
	}

	rendered, err := h.usecase.Render(ctx, key, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "report rendered",
		zap.String("run", key.String()),
		zap.String("format", string(format)),
		zap.Int("bytes", len(rendered.Body)),
	)
	response.Attachment(w, rendered.ContentType, rendered.FileName, rendered.Body)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrRunNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		ctxzap.Error(ctx, "report request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to build report")
	}
}
