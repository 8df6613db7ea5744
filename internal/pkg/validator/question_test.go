package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/futig/mcq-reasoner/internal/entity"
)

func TestValidateQuestion(t *testing.T) {
	v := NewQuestionValidator(50)

	tests := []struct {
		name    string
		q       entity.Question
		wantErr bool
	}{
		{"valid", entity.Question{Question: "2+2?", Choices: []string{"3", "4"}, Answer: "B"}, false},
		{"no answer", entity.Question{Question: "2+2?", Choices: []string{"3", "4"}}, false},
		{"empty question", entity.Question{Question: "  ", Choices: []string{"a"}}, true},
		{"too long", entity.Question{Question: strings.Repeat("ă", 51), Choices: []string{"a"}}, true},
		{"no choices", entity.Question{Question: "q"}, true},
		{"too many choices", entity.Question{Question: "q", Choices: make([]string, 27)}, true},
		{"blank choice", entity.Question{Question: "q", Choices: []string{"a", ""}}, true},
		{"answer out of range", entity.Question{Question: "q", Choices: []string{"a", "b"}, Answer: "C"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateQuestion(&tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateQuestion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, entity.ErrInvalidQuestion) {
				t.Errorf("error %v does not wrap ErrInvalidQuestion", err)
			}
		})
	}
}
