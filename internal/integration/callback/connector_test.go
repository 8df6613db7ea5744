package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
)

type received struct {
	runKey string
	auth   string
	event  struct {
		Event     string         `json:"event"`
		Timestamp string         `json:"timestamp"`
		Data      map[string]any `json:"data"`
	}
}

func newServer(t *testing.T, status int) (*httptest.Server, chan received) {
	t.Helper()
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec received
		rec.runKey = r.Header.Get("X-Run-Key")
		rec.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&rec.event); err != nil {
			t.Errorf("decode callback body: %v", err)
		}
		got <- rec
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestConnector(t *testing.T, url string) *Connector {
	c := NewConnector(config.CallbackConfig{URL: url, Token: "secret", Timeout: 5 * time.Second}, nil, zaptest.NewLogger(t))
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("ICT", 7*3600)) }
	return c
}

func TestRunFinishedPostsSummary(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent)
	c := newTestConnector(t, srv.URL)

	summary := &entity.RunSummary{
		Key:       entity.RunKey{Model: "small", Strategy: entity.StrategyDirect, Name: "val"},
		Total:     4,
		Processed: 4,
		Scored:    4,
		Correct:   3,
	}
	c.RunFinished(context.Background(), summary)

	rec := <-got
	if rec.event.Event != string(entity.CallbackEventRunCompleted) {
		t.Errorf("event = %q, want %q", rec.event.Event, entity.CallbackEventRunCompleted)
	}
	if rec.event.Timestamp != "2024-05-01T05:00:00Z" {
		t.Errorf("timestamp = %q, want UTC RFC3339", rec.event.Timestamp)
	}
	if rec.runKey != "small_direct_val" {
		t.Errorf("X-Run-Key = %q", rec.runKey)
	}
	if rec.auth == "" {
		t.Error("expected Authorization header from token")
	}
	if acc := rec.event.Data["accuracy"]; acc != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", acc)
	}
}

func TestRunFinishedMarksInterruptedRuns(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := newTestConnector(t, srv.URL)

	c.RunFinished(context.Background(), &entity.RunSummary{
		Key:         entity.RunKey{Model: "m", Strategy: entity.StrategyChainOfThought},
		Interrupted: true,
	})

	if rec := <-got; rec.event.Event != string(entity.CallbackEventRunInterrupted) {
		t.Errorf("event = %q, want %q", rec.event.Event, entity.CallbackEventRunInterrupted)
	}
}

func TestRunFailedCarriesError(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	c := newTestConnector(t, srv.URL)

	c.RunFailed(context.Background(), entity.RunKey{Model: "m", Strategy: entity.StrategyDirect}, errors.New("disk full"))

	rec := <-got
	if rec.event.Event != string(entity.CallbackEventRunFailed) {
		t.Errorf("event = %q", rec.event.Event)
	}
	if rec.event.Data["error"] != "disk full" {
		t.Errorf("error = %v", rec.event.Data["error"])
	}
}

func TestSendReturnsHTTPFailure(t *testing.T) {
	srv, got := newServer(t, http.StatusInternalServerError)
	c := newTestConnector(t, srv.URL)

	err := c.Send(context.Background(), "k", &entity.CallbackEvent{Event: entity.CallbackEventRunCompleted})
	<-got
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
