package report

import (
	"context"
	"io"

	"github.com/futig/mcq-reasoner/internal/entity"
)

type ResultStore interface {
	Load(ctx context.Context, key entity.RunKey) ([]entity.InferenceResult, error)
}

type ArtifactStore interface {
	Put(ctx context.Context, name string, data io.Reader) (string, error)
}
