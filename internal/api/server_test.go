package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/futig/mcq-reasoner/internal/agent"
	answerapi "github.com/futig/mcq-reasoner/internal/api/answer"
	reportapi "github.com/futig/mcq-reasoner/internal/api/report"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
	"github.com/futig/mcq-reasoner/internal/pkg/validator"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
	reportuc "github.com/futig/mcq-reasoner/internal/usecase/report"
)

type fakeInference struct {
	gotAdditional string
	gotQuestion   *entity.Question
}

func (f *fakeInference) AnswerQuestion(_ context.Context, q *entity.Question, additional string) (*inference.Answer, error) {
	f.gotQuestion = q
	f.gotAdditional = additional
	return &inference.Answer{
		Letter: "B",
		Path:   inference.PathAgent,
		Agent: &agent.Result{
			Letter:  "B",
			Outcome: agent.OutcomeFinalAnswer,
			Calls:   1,
			Steps:   []entity.AgentStep{{Thought: "dễ"}},
		},
	}, nil
}

type fakeReports struct{}

func (fakeReports) Evaluate(_ context.Context, key entity.RunKey) (*entity.Evaluation, error) {
	if key.Model != "small" {
		return nil, entity.ErrRunNotFound
	}
	return &entity.Evaluation{Run: key.String(), Total: 3}, nil
}

func (fakeReports) Render(_ context.Context, key entity.RunKey, format formatter.Format) (*reportuc.Rendered, error) {
	if format != formatter.FormatMarkdown {
		return nil, entity.ErrInvalidParameter
	}
	return &reportuc.Rendered{Body: []byte("# report"), ContentType: "text/markdown", FileName: "report_" + key.String() + ".md"}, nil
}

func newServer(t *testing.T, inf *fakeInference, health HealthCheck) *httptest.Server {
	t.Helper()
	router := SetupRouter(
		answerapi.NewHandler(inf, validator.NewQuestionValidator(0)),
		reportapi.NewHandler(fakeReports{}),
		health,
		time.Minute,
		zaptest.NewLogger(t),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnswerEndpoint(t *testing.T) {
	inf := &fakeInference{}
	srv := newServer(t, inf, nil)

	body := `{"qid": "q1", "question": "Đoạn thông tin: x\nCâu hỏi: Chọn?", "choices": ["một", "hai"], "answer": "b", "context": "thêm"}`
	resp, err := http.Post(srv.URL+"/answers", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got answerapi.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Answer != "B" || got.ChoiceText != "hai" || got.Correct == nil || !*got.Correct {
		t.Errorf("response = %+v", got)
	}
	if got.Agent == nil || got.Agent.Outcome != string(agent.OutcomeFinalAnswer) {
		t.Errorf("agent trace = %+v", got.Agent)
	}
	if inf.gotAdditional != "thêm" || inf.gotQuestion.RawQuestion != "Chọn?" {
		t.Errorf("usecase got additional %q, question %q", inf.gotAdditional, inf.gotQuestion.RawQuestion)
	}
}

func TestAnswerEndpointRejectsInvalid(t *testing.T) {
	srv := newServer(t, &fakeInference{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"question": `},
		{"no choices", `{"question": "q", "choices": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/answers", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestReportEndpoints(t *testing.T) {
	srv := newServer(t, &fakeInference{}, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"evaluation", "/runs/small/direct/evaluation?name=val", http.StatusOK},
		{"unknown run", "/runs/large/direct/evaluation", http.StatusNotFound},
		{"bad strategy", "/runs/small/guess/evaluation", http.StatusBadRequest},
		{"markdown report", "/runs/small/cot/report?format=markdown", http.StatusOK},
		{"unsupported format", "/runs/small/cot/report?format=docx", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	healthy := newServer(t, &fakeInference{}, func(context.Context) error { return nil })
	sick := newServer(t, &fakeInference{}, func(context.Context) error { return errors.New("db down") })

	tests := []struct {
		srv        *httptest.Server
		path       string
		wantStatus int
	}{
		{healthy, "/health", http.StatusOK},
		{sick, "/health", http.StatusServiceUnavailable},
		{healthy, "/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		resp, err := http.Get(tt.srv.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
		}
	}
}
