package entity

import "sort"

// MaxSampleErrors bounds the error sample carried by an Evaluation
const MaxSampleErrors = 5

// Evaluation summarizes a results collection
type Evaluation struct {
	Run          string            `json:"run"`
	Total        int               `json:"total"`
	Scored       int               `json:"scored"`
	Correct      int               `json:"correct"`
	Accuracy     float64           `json:"accuracy"`
	Errors       int               `json:"errors"`
	SampleErrors []InferenceResult `json:"sample_errors"`
	AverageTime  float64           `json:"average_time"`
	Predictions  []LetterCount     `json:"predictions"`
}

// LetterCount is how often a letter was predicted
type LetterCount struct {
	Letter string `json:"letter"`
	Count  int    `json:"count"`
}

// Evaluate scores results that carry ground truth. Errors counts results
// explicitly marked incorrect; the first few are kept as a sample.
func Evaluate(run string, results []InferenceResult) Evaluation {
	ev := Evaluation{
		Run:          run,
		Total:        len(results),
		SampleErrors: []InferenceResult{},
	}

	counts := make(map[string]int)
	var timed int
	var totalTime float64
	for _, r := range results {
		counts[r.Predicted]++

		if r.Time != nil {
			timed++
			totalTime += *r.Time
		}

		if r.HasGroundTruth() {
			ev.Scored++
			if r.Predicted == *r.GroundTruth {
				ev.Correct++
			}
		}

		if r.Correct != nil && !*r.Correct {
			ev.Errors++
			if len(ev.SampleErrors) < MaxSampleErrors {
				ev.SampleErrors = append(ev.SampleErrors, r)
			}
		}
	}

	if ev.Scored > 0 {
		ev.Accuracy = float64(ev.Correct) / float64(ev.Scored)
	}
	if timed > 0 {
		ev.AverageTime = totalTime / float64(timed)
	}

	ev.Predictions = make([]LetterCount, 0, len(counts))
	for letter, n := range counts {
		ev.Predictions = append(ev.Predictions, LetterCount{Letter: letter, Count: n})
	}
	sort.Slice(ev.Predictions, func(i, j int) bool {
		return ev.Predictions[i].Letter < ev.Predictions[j].Letter
	})

	return ev
}
