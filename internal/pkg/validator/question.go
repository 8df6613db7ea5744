package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/mcq-reasoner/internal/entity"
)

// Validator checks questions arriving from outside the batch loader
type Validator struct {
	maxQuestionChars int
}

func NewQuestionValidator(maxQuestionChars int) *Validator {
	return &Validator{maxQuestionChars: maxQuestionChars}
}

func (v *Validator) ValidateQuestion(q *entity.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question is empty", entity.ErrInvalidQuestion)
	}
	if v.maxQuestionChars > 0 && utf8.RuneCountInString(q.Question) > v.maxQuestionChars {
		return fmt.Errorf("%w: question exceeds %d characters", entity.ErrInvalidQuestion, v.maxQuestionChars)
	}

	if len(q.Choices) == 0 {
		return fmt.Errorf("%w: no choices", entity.ErrInvalidQuestion)
	}
	if len(q.Choices) > entity.MaxChoices {
		return fmt.Errorf("%w: %d choices, at most %d allowed", entity.ErrInvalidQuestion, len(q.Choices), entity.MaxChoices)
	}
	for i, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: choice %s is empty", entity.ErrInvalidQuestion, entity.LetterFor(i))
		}
	}

	if q.Answer != "" && q.ChoiceText(q.Answer) == "" {
		return fmt.Errorf("%w: answer %q does not name a choice", entity.ErrInvalidQuestion, q.Answer)
	}
	return nil
}
