package batch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/futig/mcq-reasoner/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Options for one orchestrated run
type Options struct {
	Key           entity.RunKey
	Limit         int
	ProgressEvery int
	RecordTime    bool
}

// BatchUsecase answers a question set one by one with a checkpoint after
// every question
type BatchUsecase struct {
	answerer Answerer
	store    CheckpointStore
	metrics  *metrics.Metrics
}

func NewUsecase(answerer Answerer, store CheckpointStore, m *metrics.Metrics) *BatchUsecase {
	return &BatchUsecase{
		answerer: answerer,
		store:    store,
		metrics:  m,
	}
}

// Run processes every question not already in the checkpoint for opts.Key.
// The whole result collection is saved after each answer, so cancellation
// loses at most the in-flight question. A cancelled run returns its summary
// with Interrupted set and a nil error; a failed save is returned as error.
func (uc *BatchUsecase) Run(ctx context.Context, questions []entity.Question, opts Options) (*entity.RunSummary, error) {
	ctx = logger.AddFields(ctx, zap.String("run", opts.Key.String()))
	log := ctxzap.Extract(ctx)

	existing, err := uc.store.Load(ctx, opts.Key)
	if err != nil {
		log.Warn("could not load checkpoint, starting fresh", zap.Error(err))
		existing = nil
	}

	processed := make(map[string]bool, len(existing))
	summary := &entity.RunSummary{Key: opts.Key}
	for _, r := range existing {
		processed[r.QID] = true
		if r.HasGroundTruth() {
			summary.Scored++
			if r.IsCorrect() {
				summary.Correct++
			}
		}
	}

	if opts.Limit > 0 && opts.Limit < len(questions) {
		questions = questions[:opts.Limit]
		log.Info("limited question set", zap.Int("limit", opts.Limit))
	}
	summary.Total = len(questions)

	pending := make([]*entity.Question, 0, len(questions))
	for i := range questions {
		if !processed[questions[i].ID] {
			pending = append(pending, &questions[i])
		}
	}
	summary.Skipped = len(questions) - len(pending)

	results := append([]entity.InferenceResult(nil), existing...)
	summary.Results = results

	if len(pending) == 0 {
		log.Info("all questions already processed", zap.Int("checkpointed", len(existing)))
		return summary, nil
	}
	log.Info("processing questions",
		zap.Int("pending", len(pending)),
		zap.Int("skipped", summary.Skipped),
	)

	for i, q := range pending {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		idx := len(existing) + i + 1
		qctx := logger.AddFields(ctx, zap.String("qid", q.ID), zap.Int("index", idx))

		start := time.Now()
		ans, err := uc.answerer.AnswerQuestion(qctx, q, "")
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			return summary, fmt.Errorf("answer question %s: %w", q.ID, err)
		}
		seconds := time.Since(start).Seconds()

		var elapsed *float64
		if opts.RecordTime {
			rounded := math.Round(seconds*10000) / 10000
			elapsed = &rounded
		}

		res := entity.NewInferenceResult(q, ans.Letter, elapsed)
		results = append(results, res)
		summary.Results = results
		summary.Processed++

		// the checkpoint must land even when the run is being cancelled
		if err := uc.store.Save(context.WithoutCancel(ctx), opts.Key, results); err != nil {
			return summary, fmt.Errorf("save checkpoint: %w", err)
		}

		outcome := "unscored"
		if res.HasGroundTruth() {
			summary.Scored++
			outcome = "incorrect"
			if res.IsCorrect() {
				summary.Correct++
				outcome = "correct"
			}
		}
		uc.metrics.Question(string(opts.Key.Strategy), outcome, seconds)

		ctxzap.Extract(qctx).Info("question answered",
			zap.String("predicted", res.Predicted),
			zap.String("path", string(ans.Path)),
			zap.String("result", outcome),
			zap.Float64("seconds", seconds),
		)

		if opts.ProgressEvery > 0 && idx%opts.ProgressEvery == 0 && summary.Scored > 0 {
			log.Info("progress",
				zap.Int("done", idx),
				zap.Int("total", summary.Total),
				zap.Int("correct", summary.Correct),
				zap.Int("scored", summary.Scored),
				zap.String("accuracy", fmt.Sprintf("%.1f%%", summary.Accuracy()*100)),
			)
		}
	}

	if summary.Interrupted {
		log.Warn("run interrupted, results saved up to this point", zap.Int("processed", summary.Processed))
	}
	if summary.Scored > 0 {
		log.Info("run finished",
			zap.Int("correct", summary.Correct),
			zap.Int("scored", summary.Scored),
			zap.String("accuracy", fmt.Sprintf("%.2f%%", summary.Accuracy()*100)),
		)
	}
	return summary, nil
}
