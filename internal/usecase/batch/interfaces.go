package batch

import (
	"context"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
)

type Answerer interface {
	AnswerQuestion(ctx context.Context, q *entity.Question, additional string) (*inference.Answer, error)
}

// CheckpointStore persists the full result collection of one run
type CheckpointStore interface {
	Load(ctx context.Context, key entity.RunKey) ([]entity.InferenceResult, error)
	Save(ctx context.Context, key entity.RunKey, results []entity.InferenceResult) error
}
