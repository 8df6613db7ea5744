package answer

import (
	"time"

	"github.com/futig/mcq-reasoner/internal/agent"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
)

// AnswerRequest is one question to answer. Context is optional extra
// material used when the question carries no passage of its own.
type AnswerRequest struct {
	QID      string   `json:"qid"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer,omitempty"`
	Context  string   `json:"context,omitempty"`
}

type AnswerResponse struct {
	QID        string             `json:"qid,omitempty"`
	Answer     string             `json:"answer"`
	ChoiceText string             `json:"choice_text"`
	Path       string             `json:"path"`
	Correct    *bool              `json:"correct,omitempty"`
	Seconds    float64            `json:"seconds"`
	Agent      *AgentTraceResponse `json:"agent,omitempty"`
}

type AgentTraceResponse struct {
	Outcome string             `json:"outcome"`
	Calls   int                `json:"calls"`
	Steps   []entity.AgentStep `json:"steps"`
	Trace   string             `json:"trace"`
}

func toEntityQuestion(req *AnswerRequest) *entity.Question {
	q := &entity.Question{
		ID:       req.QID,
		Question: req.Question,
		Choices:  req.Choices,
		Answer:   req.Answer,
	}
	q.Normalize()
	return q
}

func toAnswerResponse(q *entity.Question, ans *inference.Answer, elapsed time.Duration) AnswerResponse {
	resp := AnswerResponse{
		QID:        q.ID,
		Answer:     ans.Letter,
		ChoiceText: q.ChoiceText(ans.Letter),
		Path:       string(ans.Path),
		Seconds:    elapsed.Seconds(),
	}

	if q.Answer != "" {
		correct := q.Answer == ans.Letter
		resp.Correct = &correct
	}

	if ans.Agent != nil {
		resp.Agent = &AgentTraceResponse{
			Outcome: string(ans.Agent.Outcome),
			Calls:   ans.Agent.Calls,
			Steps:   ans.Agent.Steps,
			Trace:   agent.Trace(ans.Agent.Steps),
		}
	}
	return resp
}
