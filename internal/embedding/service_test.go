package embedding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     func(text string) bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{calls: make(map[string]int)}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls[text]++
	f.mu.Unlock()

	if f.fail != nil && f.fail(text) {
		return nil, errors.New("boom")
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

func (f *fakeEmbedder) callCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func TestEmbedDocumentsUsesCacheAndDeduplicates(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.gob"), logger)
	if err != nil {
		t.Fatal(err)
	}
	emb := newFakeEmbedder()
	svc := NewService(emb, cache, 2, 4, nil, logger)

	texts := []string{"a", "bb", "a", "ccc"}
	got, err := svc.EmbedDocuments(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(got), len(texts))
	}
	for i, text := range texts {
		if got[i][0] != float32(len(text)) {
			t.Errorf("vector %d = %v, not aligned with %q", i, got[i], text)
		}
	}
	if emb.callCount("a") != 1 {
		t.Errorf("duplicate text embedded %d times", emb.callCount("a"))
	}

	if _, err := svc.EmbedDocuments(context.Background(), texts); err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"a", "bb", "ccc"} {
		if emb.callCount(text) != 1 {
			t.Errorf("%q re-embedded despite cache (%d calls)", text, emb.callCount(text))
		}
	}
}

func TestEmbedDocumentsZeroFillsFailures(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, _ := OpenCache("", logger)
	emb := newFakeEmbedder()
	emb.fail = func(text string) bool { return strings.HasPrefix(text, "bad") }
	svc := NewService(emb, cache, 10, 2, nil, logger)

	got, err := svc.EmbedDocuments(context.Background(), []string{"bad1", "good", "bad2"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}
	for _, i := range []int{0, 2} {
		if len(got[i]) != 3 {
			t.Errorf("zero vector %d has dimension %d, want 3", i, len(got[i]))
		}
		for _, v := range got[i] {
			if v != 0 {
				t.Errorf("vector %d = %v, want zeros", i, got[i])
				break
			}
		}
	}
	if _, ok := cache.Get("bad1"); ok {
		t.Error("failed embedding must not be cached")
	}
}

func TestEmbedDocumentsDefaultDimensionWhenAllFail(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, _ := OpenCache("", logger)
	emb := newFakeEmbedder()
	emb.fail = func(string) bool { return true }

	got, err := NewService(emb, cache, 10, 2, nil, logger).EmbedDocuments(context.Background(), []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got[0]) != DefaultDimension {
		t.Errorf("dimension = %d, want %d", len(got[0]), DefaultDimension)
	}
}

func TestEmbedDocumentsBoundsConcurrency(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, _ := OpenCache("", logger)
	emb := newFakeEmbedder()
	emb.delay = 5 * time.Millisecond

	texts := make([]string, 40)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}
	if _, err := NewService(emb, cache, 20, 3, nil, logger).EmbedDocuments(context.Background(), texts); err != nil {
		t.Fatal(err)
	}
	if peak := emb.maxSeen.Load(); peak > 3 {
		t.Errorf("saw %d concurrent calls, limit is 3", peak)
	}
}

func TestCacheFlushAndReload(t *testing.T) {
	logger := zaptest.NewLogger(t)
	path := filepath.Join(t.TempDir(), "nested", "cache.gob")

	cache, err := OpenCache(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(newFakeEmbedder(), cache, 1, 1, nil, logger)
	if _, err := svc.EmbedDocuments(context.Background(), []string{"một", "hai"}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache not flushed after batches: %v", err)
	}

	reloaded, err := OpenCache(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("reloaded %d entries, want 2", reloaded.Len())
	}
	if vec, ok := reloaded.Get("hai"); !ok || len(vec) != 3 {
		t.Errorf("reloaded vector = %v, %v", vec, ok)
	}
}

func TestOpenCacheToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.gob")
	if err := os.WriteFile(path, []byte("not gob"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache, err := OpenCache(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("corrupt cache should start empty, has %d entries", cache.Len())
	}
}

func TestEmbedQueryCaches(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, _ := OpenCache("", logger)
	emb := newFakeEmbedder()
	svc := NewService(emb, cache, 1, 1, nil, logger)

	for i := 0; i < 3; i++ {
		if _, err := svc.EmbedQuery(context.Background(), "câu hỏi"); err != nil {
			t.Fatal(err)
		}
	}
	if emb.callCount("câu hỏi") != 1 {
		t.Errorf("query embedded %d times, want 1", emb.callCount("câu hỏi"))
	}
}

func TestEmbedDocumentsStopsOnCancellation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cache, _ := OpenCache("", logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(newFakeEmbedder(), cache, 1, 1, nil, logger).EmbedDocuments(ctx, []string{"a", "b"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
