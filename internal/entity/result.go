package entity

// Strategy selects the per-question inference path
type Strategy string

const (
	StrategyDirect         Strategy = "direct"
	StrategyChainOfThought Strategy = "cot"
	StrategyAgent          Strategy = "agent"
)

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	switch s {
	case StrategyDirect, StrategyChainOfThought, StrategyAgent:
		return true
	}
	return false
}

// InferenceResult is one checkpointed answer
type InferenceResult struct {
	QID         string   `json:"qid"`
	Predicted   string   `json:"predicted"`
	GroundTruth *string  `json:"ground_truth"`
	Correct     *bool    `json:"correct,omitempty"`
	Time        *float64 `json:"time,omitempty"`
}

// NewInferenceResult builds a result, scoring it when ground truth is known
func NewInferenceResult(q *Question, predicted string, elapsedSeconds *float64) InferenceResult {
	res := InferenceResult{
		QID:       q.ID,
		Predicted: predicted,
		Time:      elapsedSeconds,
	}

	if q.Answer != "" {
		truth := q.Answer
		correct := predicted == truth
		res.GroundTruth = &truth
		res.Correct = &correct
	}

	return res
}

// HasGroundTruth reports whether the result can be scored
func (r InferenceResult) HasGroundTruth() bool {
	return r.GroundTruth != nil && *r.GroundTruth != ""
}

// IsCorrect reports a scored, correct prediction
func (r InferenceResult) IsCorrect() bool {
	return r.Correct != nil && *r.Correct
}

// RunKey identifies one run configuration's checkpoint
type RunKey struct {
	Model    string
	Strategy Strategy
	Name     string
}

// String renders the key as used in checkpoint file names and rows
func (k RunKey) String() string {
	s := k.Model + "_" + string(k.Strategy)
	if k.Name != "" {
		s += "_" + k.Name
	}
	return s
}

// RunSummary reports the outcome of one orchestrator run. Interrupted is
// set when cancellation stopped the run early.
type RunSummary struct {
	Key         RunKey
	Total       int
	Skipped     int
	Processed   int
	Correct     int
	Scored      int
	Interrupted bool
	Results     []InferenceResult
}

// Accuracy returns correct/scored or 0 when nothing was scored
func (s *RunSummary) Accuracy() float64 {
	if s.Scored == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Scored)
}
