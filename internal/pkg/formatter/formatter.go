package formatter

import (
	"fmt"

	"github.com/futig/mcq-reasoner/internal/entity"
)

const baseTitle = "MCQ run report"

// Format names a report rendering
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

type Formatter interface {
	Format(ev entity.Evaluation) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format Format) (Formatter, error) {
	switch format {
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(), nil
	case FormatPDF:
		return NewPDFFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// summaryRows is the metric table shared by the text renderings
func summaryRows(ev entity.Evaluation) [][2]string {
	accuracy := "n/a"
	if ev.Scored > 0 {
		accuracy = fmt.Sprintf("%d/%d = %.2f%%", ev.Correct, ev.Scored, ev.Accuracy*100)
	}
	return [][2]string{
		{"Run", ev.Run},
		{"Questions", fmt.Sprint(ev.Total)},
		{"Accuracy", accuracy},
		{"Errors", fmt.Sprint(ev.Errors)},
		{"Average time", fmt.Sprintf("%.4fs", ev.AverageTime)},
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
