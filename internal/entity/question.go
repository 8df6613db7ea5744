package entity

import (
	"regexp"
	"strings"
)

// MaxChoices is the number of addressable choices (A..Z)
const MaxChoices = 26

// Question is a single multiple-choice item. Choice order defines the letter mapping.
type Question struct {
	ID          string   `json:"qid"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer,omitempty"`
	Context     string   `json:"-"`
	RawQuestion string   `json:"-"`
}

// LetterFor returns the choice letter for index i
func LetterFor(i int) string {
	if i < 0 || i >= MaxChoices {
		return ""
	}
	return string(rune('A' + i))
}

// Letters returns the valid answer alphabet for the question.
// A question without choices still answers with "A".
func (q *Question) Letters() string {
	n := len(q.Choices)
	if n > MaxChoices {
		n = MaxChoices
	}
	if n == 0 {
		n = 1
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(LetterFor(i))
	}
	return b.String()
}

// HasContext reports whether the question carries an embedded passage
func (q *Question) HasContext() bool {
	return q.Context != ""
}

// QuestionText returns the question with any embedded context removed
func (q *Question) QuestionText() string {
	if q.RawQuestion != "" {
		return q.RawQuestion
	}
	return q.Question
}

// ChoiceText returns the text of the choice with the given letter
func (q *Question) ChoiceText(letter string) string {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 {
		return ""
	}
	idx := int(letter[0]) - 'A'
	if idx < 0 || idx >= len(q.Choices) {
		return ""
	}
	return q.Choices[idx]
}

// FormatChoices renders "A. first\nB. second..."
func (q *Question) FormatChoices() string {
	lines := make([]string, 0, len(q.Choices))
	for i, choice := range q.Choices {
		if i >= MaxChoices {
			break
		}
		lines = append(lines, LetterFor(i)+". "+choice)
	}
	return strings.Join(lines, "\n")
}

var contextPrefixes = []string{
	"Đoạn thông tin",
	"[1]",
	"-- Đoạn văn",
	"-- Document",
	"Title:",
}

var questionMarker = regexp.MustCompile(`Câu hỏi:\s*`)

// SplitContext separates an embedded passage from the question text.
// Only texts starting with a known passage prefix are split, at the last
// "Câu hỏi:" marker so the marker appearing inside the passage is ignored.
func SplitContext(text string) (context, question string) {
	hasPrefix := false
	for _, prefix := range contextPrefixes {
		if strings.HasPrefix(text, prefix) {
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", text
	}

	matches := questionMarker.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return "", text
	}

	last := matches[len(matches)-1]
	return strings.TrimSpace(text[:last[0]]), strings.TrimSpace(text[last[1]:])
}

// Normalize fills Context and RawQuestion from the full question text
func (q *Question) Normalize() {
	context, raw := SplitContext(q.Question)
	q.Context = context
	q.RawQuestion = raw
}
