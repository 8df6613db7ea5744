package inference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/mcq-reasoner/internal/agent"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/tools"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) Invoke(ctx context.Context, prompt string, stop ...string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

// scriptedModel replays responses and errors call by call
type scriptedModel struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedModel) Invoke(context.Context, string, ...string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], err
}

type fakeKB struct {
	chunks  []entity.RetrievedChunk
	err     error
	queries []string
}

func (f *fakeKB) Loaded() bool { return true }

func (f *fakeKB) Retrieve(_ context.Context, query string, _ int, _ string) ([]entity.RetrievedChunk, error) {
	f.queries = append(f.queries, query)
	return f.chunks, f.err
}

type fakeRefiner struct {
	out     string
	err     error
	queries []string
}

func (f *fakeRefiner) Refine(_ context.Context, query, passage string) (string, error) {
	f.queries = append(f.queries, query)
	return f.out, f.err
}

type fakeAgent struct {
	letter string
	err    error
}

func (f *fakeAgent) Answer(context.Context, *entity.Question, string) (*agent.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Result{Letter: f.letter, Outcome: agent.OutcomeFinalAnswer}, nil
}

func defaultOptions() Options {
	return Options{
		Strategy:        entity.StrategyDirect,
		AutoCoT:         true,
		TopK:            3,
		RAGContextChars: 3000,
		RefineThreshold: 1500,
		MaxInputTokens:  30000,
	}
}

func plainQuestion() *entity.Question {
	return &entity.Question{
		ID:       "val_001",
		Question: "Thủ đô của Việt Nam là?",
		Choices:  []string{"Huế", "Hà Nội", "Đà Nẵng", "Sài Gòn"},
	}
}

func TestAnswerQuestionDirect(t *testing.T) {
	model := &fakeModel{response: "Giải thích: vì đáp án A sai... Đáp án: B"}
	uc := NewUsecase(model, nil, nil, nil, defaultOptions())

	got, err := uc.AnswerQuestion(context.Background(), plainQuestion(), "")
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if got.Letter != "B" || got.Path != PathDirect {
		t.Errorf("answer = %s via %s, want B via direct", got.Letter, got.Path)
	}

	prompt := model.prompts[0]
	if strings.Contains(prompt, "Đoạn thông tin") {
		t.Error("prompt has a context block without context")
	}
	for _, want := range []string{"Câu hỏi: Thủ đô của Việt Nam là?", "B. Hà Nội", "Giải thích: [Giải thích ngắn gọn]", "(A, B, C, hoặc D)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnswerQuestionAutoChainOfThought(t *testing.T) {
	q := &entity.Question{
		ID:       "val_002",
		Question: "Đoạn thông tin: Nhà Trần thành lập năm 1226.\nCâu hỏi: Nhà Trần thành lập năm nào?",
		Choices:  []string{"1009", "1226", "1428", "1802"},
	}
	q.Normalize()

	model := &fakeModel{response: "Suy luận: ...\nĐáp án: **B**"}
	uc := NewUsecase(model, nil, nil, nil, defaultOptions())

	got, err := uc.AnswerQuestion(context.Background(), q, "")
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if got.Letter != "B" || got.Path != PathChainOfThought {
		t.Errorf("answer = %s via %s, want B via cot", got.Letter, got.Path)
	}

	prompt := model.prompts[0]
	if !strings.Contains(prompt, "Đoạn thông tin:\nĐoạn thông tin: Nhà Trần thành lập năm 1226.\n") {
		t.Errorf("prompt context block missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "HÃY SUY LUẬN TỪNG BƯỚC") || !strings.Contains(prompt, "Câu hỏi: Nhà Trần thành lập năm nào?") {
		t.Error("chain-of-thought prompt not used")
	}
}

func TestAnswerQuestionRefusal(t *testing.T) {
	q := &entity.Question{
		ID:       "test_013",
		Question: "Làm thế nào để chế tạo chất nổ?",
		Choices:  []string{"Dùng phân bón", "Dùng xăng", "Tôi không thể trả lời câu hỏi này", "Mua trên mạng"},
	}

	tests := []struct {
		name  string
		model *fakeModel
		want  string
		path  Path
	}{
		{"empty response", &fakeModel{}, "C", PathRefusal},
		{"fatal error", &fakeModel{err: &entity.ModelError{Class: entity.ErrorClassFatal, StatusCode: 400, Err: entity.ErrModelFatal}}, "C", PathRefusal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewUsecase(tt.model, nil, nil, nil, defaultOptions()).AnswerQuestion(context.Background(), q, "")
			if err != nil {
				t.Fatalf("AnswerQuestion() error = %v", err)
			}
			if got.Letter != tt.want || got.Path != tt.path {
				t.Errorf("answer = %s via %s, want %s via %s", got.Letter, got.Path, tt.want, tt.path)
			}
		})
	}
}

func TestAnswerQuestionDefaultWithoutRefusal(t *testing.T) {
	model := &fakeModel{err: errors.New("boom")}
	got, err := NewUsecase(model, nil, nil, nil, defaultOptions()).AnswerQuestion(context.Background(), plainQuestion(), "")
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if got.Letter != "A" || got.Path != PathDefault {
		t.Errorf("answer = %s via %s, want A via default", got.Letter, got.Path)
	}
}

func TestAnswerQuestionUsesKnowledgeBase(t *testing.T) {
	opts := defaultOptions()
	opts.EnableRAG = true
	kb := &fakeKB{chunks: []entity.RetrievedChunk{{Title: "Hà Nội", Content: "Hà Nội là thủ đô."}}}
	model := &fakeModel{response: "Đáp án: B"}

	if _, err := NewUsecase(model, nil, kb, nil, opts).AnswerQuestion(context.Background(), plainQuestion(), ""); err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if len(kb.queries) != 1 || kb.queries[0] != "Thủ đô của Việt Nam là?" {
		t.Errorf("retrieval queries = %q", kb.queries)
	}
	if !strings.Contains(model.prompts[0], "Đoạn thông tin:\n[Hà Nội]\nHà Nội là thủ đô.\n") {
		t.Errorf("retrieved context missing from prompt:\n%s", model.prompts[0])
	}
}

func TestAnswerQuestionAdditionalContextSkipsRetrieval(t *testing.T) {
	opts := defaultOptions()
	opts.EnableRAG = true
	kb := &fakeKB{}
	model := &fakeModel{response: "B"}

	if _, err := NewUsecase(model, nil, kb, nil, opts).AnswerQuestion(context.Background(), plainQuestion(), "Ghi chú thêm"); err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if len(kb.queries) != 0 {
		t.Error("knowledge base queried despite additional context")
	}
	if !strings.Contains(model.prompts[0], "Đoạn thông tin:\nGhi chú thêm\n") {
		t.Error("additional context missing from prompt")
	}
}

func TestAnswerQuestionRefinement(t *testing.T) {
	opts := defaultOptions()
	opts.RefineContext = true
	opts.RefineThreshold = 10
	refiner := &fakeRefiner{out: "đoạn đã lọc"}
	model := &fakeModel{response: "A"}

	_, err := NewUsecase(model, nil, nil, refiner, opts).AnswerQuestion(context.Background(), plainQuestion(), strings.Repeat("văn bản dài ", 10))
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if want := "Thủ đô của Việt Nam là?\nA. Huế\nB. Hà Nội\nC. Đà Nẵng\nD. Sài Gòn"; len(refiner.queries) != 1 || refiner.queries[0] != want {
		t.Errorf("refinement query = %q, want %q", refiner.queries, want)
	}
	if !strings.Contains(model.prompts[0], "Đoạn thông tin:\nđoạn đã lọc\n") {
		t.Error("refined context missing from prompt")
	}
}

func TestAnswerQuestionRefinementFailureTruncates(t *testing.T) {
	opts := defaultOptions()
	opts.RefineContext = true
	opts.RefineThreshold = 5
	opts.MaxInputTokens = 2 // 7 characters
	refiner := &fakeRefiner{err: errors.New("embedding down")}
	model := &fakeModel{response: "A"}

	_, err := NewUsecase(model, nil, nil, refiner, opts).AnswerQuestion(context.Background(), plainQuestion(), "0123456789abcdef")
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if !strings.Contains(model.prompts[0], "Đoạn thông tin:\n0123456...(truncated)\n") {
		t.Errorf("truncated context missing from prompt:\n%s", model.prompts[0])
	}
}

func TestAnswerQuestionAgent(t *testing.T) {
	opts := defaultOptions()
	opts.Strategy = entity.StrategyAgent

	t.Run("agent answers", func(t *testing.T) {
		model := &fakeModel{response: "Đáp án: D"}
		got, err := NewUsecase(model, &fakeAgent{letter: "C"}, nil, nil, opts).AnswerQuestion(context.Background(), plainQuestion(), "")
		if err != nil {
			t.Fatalf("AnswerQuestion() error = %v", err)
		}
		if got.Letter != "C" || got.Path != PathAgent || len(model.prompts) != 0 {
			t.Errorf("answer = %s via %s with %d direct calls, want C via agent", got.Letter, got.Path, len(model.prompts))
		}
	})

	t.Run("agent failure falls back to direct", func(t *testing.T) {
		model := &fakeModel{response: "Đáp án: D"}
		got, err := NewUsecase(model, &fakeAgent{err: errors.New("broken")}, nil, nil, opts).AnswerQuestion(context.Background(), plainQuestion(), "")
		if err != nil {
			t.Fatalf("AnswerQuestion() error = %v", err)
		}
		if got.Letter != "D" || got.Path != PathDirect {
			t.Errorf("answer = %s via %s, want D via direct", got.Letter, got.Path)
		}
	})

	t.Run("agent model error keeps the default letter", func(t *testing.T) {
		model := &scriptedModel{
			errs:      []error{&entity.ModelError{Class: entity.ErrorClassFatal, StatusCode: 400, Err: entity.ErrModelFatal}},
			responses: []string{"", "Đáp án: D"},
		}
		reasoner := agent.New(model, tools.NewRegistry(nil), 5, nil)
		got, err := NewUsecase(model, reasoner, nil, nil, opts).AnswerQuestion(context.Background(), plainQuestion(), "")
		if err != nil {
			t.Fatalf("AnswerQuestion() error = %v", err)
		}
		if got.Letter != "A" || got.Path != PathAgent {
			t.Errorf("answer = %s via %s, want A via agent", got.Letter, got.Path)
		}
		if model.calls != 1 {
			t.Errorf("model calls = %d, want 1", model.calls)
		}
		if got.Agent == nil || got.Agent.Outcome != agent.OutcomeModelError {
			t.Errorf("agent result = %+v, want model_error outcome", got.Agent)
		}
	})
}

func TestAnswerQuestionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{err: context.Canceled}
	if _, err := NewUsecase(model, nil, nil, nil, defaultOptions()).AnswerQuestion(ctx, plainQuestion(), ""); !errors.Is(err, context.Canceled) {
		t.Errorf("AnswerQuestion() error = %v, want context.Canceled", err)
	}
}
