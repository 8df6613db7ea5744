package answer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/logger"
	"github.com/futig/mcq-reasoner/internal/pkg/response"
)

// maxRequestBytes bounds a single question body, passage included
const maxRequestBytes = 1 << 20

type Handler struct {
	usecase   InferenceUsecase
	validator QuestionValidator
}

func NewHandler(usecase InferenceUsecase, validator QuestionValidator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// AnswerQuestion handles POST /answers
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AnswerQuestion")

	var req AnswerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Answer = strings.ToUpper(strings.TrimSpace(req.Answer))

	q := toEntityQuestion(&req)
	if err := h.validator.ValidateQuestion(q); err != nil {
		ctxzap.Warn(ctx, "invalid question", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx = logger.AddFields(ctx, zap.String("qid", q.ID))
	start := time.Now()
	ans, err := h.usecase.AnswerQuestion(ctx, q, req.Context)
	if err != nil {
		h.handleUsecaseError(r, w, err)
		return
	}

	ctxzap.Info(ctx, "question answered",
		zap.String("answer", ans.Letter),
		zap.String("path", string(ans.Path)),
	)
	response.Success(w, toAnswerResponse(q, ans, time.Since(start)))
}

func (h *Handler) handleUsecaseError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidQuestion):
		response.Error(w, http.StatusBadRequest, err.Error())
	case r.Context().Err() != nil:
		// client went away or the router timeout fired
		ctxzap.Warn(r.Context(), "request canceled", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "request canceled")
	default:
		ctxzap.Error(r.Context(), "failed to answer question", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to answer question")
	}
}
