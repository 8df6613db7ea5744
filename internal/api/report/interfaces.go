package report

import (
	"context"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
	reportuc "github.com/futig/mcq-reasoner/internal/usecase/report"
)

type ReportUsecase interface {
	Evaluate(ctx context.Context, key entity.RunKey) (*entity.Evaluation, error)
	Render(ctx context.Context, key entity.RunKey, format formatter.Format) (*reportuc.Rendered, error)
}
