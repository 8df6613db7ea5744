package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
	pkgRetry "github.com/futig/mcq-reasoner/internal/pkg/retry"
	"go.uber.org/zap/zaptest"
)

type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// scriptedServer replies with the given statuses/bodies in order, repeating the last one
type scriptedServer struct {
	mu       sync.Mutex
	replies  []reply
	requests []entity.ChatCompletionRequest
	headers  []http.Header
}

type reply struct {
	status int
	body   string
}

func (s *scriptedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req entity.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())

	i := len(s.requests) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	w.WriteHeader(s.replies[i].status)
	_, _ = w.Write([]byte(s.replies[i].body))
}

func (s *scriptedServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestConnector(t *testing.T, url string, attempts uint, timer retry.Timer) *Connector {
	t.Helper()
	cfg := config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            url,
			RequestTimeout: 5 * time.Second,
			TokenID:        "tid",
			TokenKey:       "tkey",
			Token:          "secret",
			ExtraHeaders:   map[string]string{"ngrok-skip-browser-warning": "true"},
		},
		ChatEndpoint: "/chat",
		Model:        "small",
		MaxTokens:    2048,
		Seed:         42,
		Retry: pkgRetry.RetryConfig{
			Attempts: attempts,
			Delay:    5 * time.Second,
			MaxDelay: 120 * time.Second,
		},
	}
	return NewConnector(cfg, nil, zaptest.NewLogger(t), WithTimer(timer))
}

func TestInvokeRetriesTransientStatuses(t *testing.T) {
	srv := &scriptedServer{replies: []reply{
		{http.StatusTooManyRequests, `rate limited`},
		{http.StatusTooManyRequests, `rate limited`},
		{http.StatusOK, completion("Đáp án: C")},
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	timer := &recordingTimer{}
	got, err := newTestConnector(t, ts.URL, 0, timer).Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "Đáp án: C" {
		t.Errorf("Invoke() = %q", got)
	}
	if srv.calls() != 3 {
		t.Errorf("calls = %d, want 3", srv.calls())
	}

	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", timer.delays, want)
	}
	for i := range want {
		if timer.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, timer.delays[i], want[i])
		}
	}
	if timer.delays[1] <= timer.delays[0] {
		t.Errorf("delays not increasing: %v", timer.delays)
	}
}

func TestInvokeRetriesSoftErrors(t *testing.T) {
	srv := &scriptedServer{replies: []reply{
		{http.StatusOK, `{"error":{"message":"upstream busy"}}`},
		{http.StatusOK, completion("B")},
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := newTestConnector(t, ts.URL, 0, &recordingTimer{}).Invoke(context.Background(), "prompt")
	if err != nil || got != "B" {
		t.Fatalf("Invoke() = %q, %v; want B, nil", got, err)
	}
	if srv.calls() != 2 {
		t.Errorf("calls = %d, want 2", srv.calls())
	}
}

func TestInvokeFatalStatusIsNotRetried(t *testing.T) {
	srv := &scriptedServer{replies: []reply{{http.StatusBadRequest, `bad request`}}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	timer := &recordingTimer{}
	_, err := newTestConnector(t, ts.URL, 0, timer).Invoke(context.Background(), "prompt")

	if !errors.Is(err, entity.ErrModelFatal) {
		t.Fatalf("err = %v, want ErrModelFatal", err)
	}
	var me *entity.ModelError
	if !errors.As(err, &me) || me.StatusCode != http.StatusBadRequest {
		t.Errorf("err = %#v, want ModelError with status 400", err)
	}
	if srv.calls() != 1 || len(timer.delays) != 0 {
		t.Errorf("calls = %d, waits = %d; want 1, 0", srv.calls(), len(timer.delays))
	}
}

func TestInvokeEmptyResponseSignalsRefusal(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"choices":[]}`,
		"blank content": completion("   "),
	} {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(&scriptedServer{replies: []reply{{http.StatusOK, body}}})
			defer ts.Close()

			got, err := newTestConnector(t, ts.URL, 0, &recordingTimer{}).Invoke(context.Background(), "prompt")
			if err != nil || got != "" {
				t.Errorf("Invoke() = %q, %v; want empty, nil", got, err)
			}
		})
	}
}

func TestInvokeHonoursAttemptCeiling(t *testing.T) {
	srv := &scriptedServer{replies: []reply{{http.StatusServiceUnavailable, `down`}}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := newTestConnector(t, ts.URL, 3, &recordingTimer{}).Invoke(context.Background(), "prompt")
	if !errors.Is(err, entity.ErrModelTransient) {
		t.Fatalf("err = %v, want ErrModelTransient", err)
	}
	if srv.calls() != 3 {
		t.Errorf("calls = %d, want 3", srv.calls())
	}
}

func TestInvokeStopsOnCancellation(t *testing.T) {
	srv := &scriptedServer{replies: []reply{{http.StatusBadGateway, `down`}}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	timer := &cancellingTimer{cancel: cancel}

	_, err := newTestConnector(t, ts.URL, 0, timer).Invoke(ctx, "prompt")

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// cancellingTimer cancels the context instead of waiting
type cancellingTimer struct {
	cancel context.CancelFunc
}

func (c *cancellingTimer) After(time.Duration) <-chan time.Time {
	c.cancel()
	return make(chan time.Time)
}

func TestInvokeSendsRequestShapeAndEvaluatesMath(t *testing.T) {
	srv := &scriptedServer{replies: []reply{{http.StatusOK, completion("Kết quả {{ 2 + 2 }}, lỗi {{ os.getcwd() }}")}}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := newTestConnector(t, ts.URL, 0, &recordingTimer{}).Invoke(context.Background(), "hello", "Observation:")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if want := "Kết quả 4, lỗi Error: Forbidden function or variable 'os'"; got != want {
		t.Errorf("Invoke() = %q, want %q", got, want)
	}

	req := srv.requests[0]
	if req.Model != "small" || req.Seed != 42 || req.MaxCompletionTokens != 2048 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if len(req.Stop) != 1 || req.Stop[0] != "Observation:" {
		t.Errorf("stop = %v", req.Stop)
	}

	h := srv.headers[0]
	if h.Get("Authorization") != "Bearer secret" || h.Get("Token-id") != "tid" || h.Get("Token-key") != "tkey" {
		t.Errorf("auth headers = %v", h)
	}
	if h.Get("ngrok-skip-browser-warning") != "true" {
		t.Errorf("extra header missing: %v", h)
	}
}

func TestMockConnectorIsDeterministic(t *testing.T) {
	m := NewMockConnector("mock", zaptest.NewLogger(t))
	a, _ := m.Invoke(context.Background(), "same prompt")
	b, _ := m.Invoke(context.Background(), "same prompt")
	if a != b {
		t.Errorf("mock answers differ: %q vs %q", a, b)
	}
}
