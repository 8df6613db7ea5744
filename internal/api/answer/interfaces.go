package answer

import (
	"context"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
)

type InferenceUsecase interface {
	AnswerQuestion(ctx context.Context, q *entity.Question, additional string) (*inference.Answer, error)
}

type QuestionValidator interface {
	ValidateQuestion(q *entity.Question) error
}
