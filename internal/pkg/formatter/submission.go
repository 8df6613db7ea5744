package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/futig/mcq-reasoner/internal/entity"
)

const (
	SubmissionFile     = "submission.csv"
	SubmissionTimeFile = "submission_time.csv"
)

// WriteSubmission writes qid,answer rows sorted by qid. With withTime a
// third time column is added; results without a recorded time get 0.
func WriteSubmission(w io.Writer, results []entity.InferenceResult, withTime bool) error {
	sorted := append([]entity.InferenceResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QID < sorted[j].QID })

	cw := csv.NewWriter(w)
	header := []string{"qid", "answer"}
	if withTime {
		header = append(header, "time")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range sorted {
		row := []string{r.QID, r.Predicted}
		if withTime {
			t := 0.0
			if r.Time != nil {
				t = *r.Time
			}
			row = append(row, strconv.FormatFloat(t, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.QID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
