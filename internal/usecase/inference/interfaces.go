package inference

import (
	"context"

	"github.com/futig/mcq-reasoner/internal/agent"
	"github.com/futig/mcq-reasoner/internal/entity"
)

type ModelClient interface {
	Invoke(ctx context.Context, prompt string, stop ...string) (string, error)
}

type KnowledgeBase interface {
	Loaded() bool
	Retrieve(ctx context.Context, query string, topK int, category string) ([]entity.RetrievedChunk, error)
}

type Refiner interface {
	Refine(ctx context.Context, query, passage string) (string, error)
}

type Agent interface {
	Answer(ctx context.Context, q *entity.Question, passage string) (*agent.Result, error)
}
