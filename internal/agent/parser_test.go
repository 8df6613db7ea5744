package agent

import (
	"testing"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		text     string
		want     Step
	}{
		{
			name:     "final answer",
			alphabet: "ABCD",
			text:     "Tôi đã có đủ thông tin.\nFinal Answer: c",
			want:     Step{Kind: StepFinalAnswer, Letter: "C", Thought: "Tôi đã có đủ thông tin."},
		},
		{
			name:     "final answer phrase without colon",
			alphabet: "ABCD",
			text:     "so the final answer is probably D.",
			want:     Step{Kind: StepFinalAnswer, Letter: "D", Thought: "so the final answer is probably D."},
		},
		{
			name:     "final answer wins over action",
			alphabet: "ABCD",
			text:     "Action: Calculator\nAction Input: 1+1\nFinal Answer: B",
			want:     Step{Kind: StepFinalAnswer, Letter: "B"},
		},
		{
			name:     "action with quoted input",
			alphabet: "ABCD",
			text:     "Cần tính.\nAction: Calculator\nAction Input: \"(100 - 80) / 100\"\nthêm dòng",
			want:     Step{Kind: StepAction, Action: "Calculator", Input: "(100 - 80) / 100", Thought: "Cần tính."},
		},
		{
			name:     "action without input",
			alphabet: "ABCD",
			text:     "Action: Calculator",
			want:     Step{Kind: StepNone},
		},
		{
			name:     "answer phrase",
			alphabet: "ABCD",
			text:     "Vậy đáp án: B",
			want:     Step{Kind: StepFreeAnswer, Letter: "B", Thought: "Vậy đáp án: B"},
		},
		{
			name:     "english answer phrase",
			alphabet: "ABCD",
			text:     "answer:c",
			want:     Step{Kind: StepFreeAnswer, Letter: "C", Thought: "answer:c"},
		},
		{
			name:     "bare letter",
			alphabet: "ABCD",
			text:     "Phương án (D) đúng",
			want:     Step{Kind: StepFreeAnswer, Letter: "D", Thought: "Phương án (D) đúng"},
		},
		{
			name:     "letter inside vietnamese word",
			alphabet: "ABCD",
			text:     "BÀI toán khó",
			want:     Step{Kind: StepNone, Thought: "BÀI toán khó"},
		},
		{
			name:     "letter outside alphabet",
			alphabet: "AB",
			text:     "Final Answer: D",
			want:     Step{Kind: StepNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewParser(tt.alphabet).ParseStep(tt.text)
			if got != tt.want {
				t.Errorf("ParseStep(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
