package logger

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("debug", true); err != nil {
		t.Fatalf("New(debug) error = %v", err)
	}
}

func TestWithActionAndAddFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ctxzap.ToContext(context.Background(), zap.New(core))

	ctx = WithAction(ctx, "answer")
	ctx = AddFields(ctx, zap.String("qid", "q1"))
	ctxzap.Info(ctx, "done")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["action"] != "answer" || fields["qid"] != "q1" {
		t.Errorf("context fields = %v", fields)
	}
}
