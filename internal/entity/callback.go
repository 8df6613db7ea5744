package entity

// CallbackEventType names a run lifecycle event
type CallbackEventType string

const (
	CallbackEventRunCompleted   CallbackEventType = "runCompleted"
	CallbackEventRunInterrupted CallbackEventType = "runInterrupted"
	CallbackEventRunFailed      CallbackEventType = "runFailed"
)

// CallbackEvent is the envelope posted to the run webhook
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackRunData summarizes a finished or interrupted run
type CallbackRunData struct {
	RunKey    string  `json:"run_key"`
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Skipped   int     `json:"skipped"`
	Scored    int     `json:"scored"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// NewCallbackRunData flattens a run summary for the webhook
func NewCallbackRunData(s *RunSummary) *CallbackRunData {
	return &CallbackRunData{
		RunKey:    s.Key.String(),
		Total:     s.Total,
		Processed: s.Processed,
		Skipped:   s.Skipped,
		Scored:    s.Scored,
		Correct:   s.Correct,
		Accuracy:  s.Accuracy(),
	}
}

// CallbackErrorData is the payload of a failed run
type CallbackErrorData struct {
	RunKey string `json:"run_key"`
	Error  string `json:"error"`
}
