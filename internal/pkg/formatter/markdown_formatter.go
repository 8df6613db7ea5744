package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/mcq-reasoner/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(ev entity.Evaluation) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)

	buf.WriteString("| Metric | Value |\n|---|---|\n")
	for _, row := range summaryRows(ev) {
		fmt.Fprintf(&buf, "| %s | %s |\n", row[0], row[1])
	}

	if len(ev.Predictions) > 0 {
		buf.WriteString("\n## Predicted letters\n\n| Letter | Count |\n|---|---|\n")
		for _, p := range ev.Predictions {
			fmt.Fprintf(&buf, "| %s | %d |\n", p.Letter, p.Count)
		}
	}

	if len(ev.SampleErrors) > 0 {
		buf.WriteString("\n## Sample errors\n\n")
		for _, e := range ev.SampleErrors {
			fmt.Fprintf(&buf, "- %s: predicted %s, ground truth %s\n", e.QID, e.Predicted, derefOr(e.GroundTruth, "-"))
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
