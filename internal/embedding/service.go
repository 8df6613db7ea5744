package embedding

import (
	"context"
	"fmt"

	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDimension is used for zero vectors when no embedding has ever succeeded
const DefaultDimension = 1536

// Embedder produces the embedding of one text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	embedder  Embedder
	cache     *Cache
	batchSize int
	workers   int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewService(embedder Embedder, cache *Cache, batchSize, workers int, m *metrics.Metrics, logger *zap.Logger) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Service{
		embedder:  embedder,
		cache:     cache,
		batchSize: batchSize,
		workers:   workers,
		metrics:   m,
		logger:    logger,
	}
}

// EmbedDocuments returns one vector per text, in input order.
//
// Cached texts are not re-embedded and duplicate texts are embedded once.
// Pending texts are processed in batches; within a batch at most workers
// calls run concurrently, and the cache is flushed after every batch.
// Texts whose embedding fails get a zero vector of the detected dimension.
// The only error returned is ctx cancellation.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var pending []string
	seen := make(map[string]bool)
	for i, text := range texts {
		if vec, ok := s.cache.Get(text); ok {
			results[i] = vec
			s.metrics.CacheLookup(true)
			continue
		}
		s.metrics.CacheLookup(false)
		if !seen[text] {
			seen[text] = true
			pending = append(pending, text)
		}
	}

	if len(pending) > 0 {
		ctxzap.Info(ctx, "computing embeddings",
			zap.Int("pending", len(pending)),
			zap.Int("cached", len(texts)-countPending(texts, seen)),
		)
	}

	totalBatches := (len(pending) + s.batchSize - 1) / s.batchSize
	for b := 0; b < totalBatches; b++ {
		start := b * s.batchSize
		end := min(start+s.batchSize, len(pending))

		failed := s.embedBatch(ctx, pending[start:end])

		if err := s.cache.Flush(); err != nil {
			ctxzap.Error(ctx, "flush embedding cache", zap.Error(err))
		}

		ctxzap.Debug(ctx, "embedding batch done",
			zap.Int("batch", b+1),
			zap.Int("batches", totalBatches),
			zap.Int("failed", failed),
		)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
	}

	dim := 0
	for i, text := range texts {
		if results[i] == nil {
			results[i], _ = s.cache.Get(text)
		}
		if dim == 0 && results[i] != nil {
			dim = len(results[i])
		}
	}
	if dim == 0 {
		if d, ok := s.cache.Dimension(); ok {
			dim = d
		} else {
			dim = DefaultDimension
		}
	}

	zeroFilled := 0
	for i := range results {
		if results[i] == nil {
			results[i] = make([]float32, dim)
			zeroFilled++
		}
	}
	if zeroFilled > 0 {
		s.metrics.ZeroVectors(zeroFilled)
		ctxzap.Warn(ctx, "filled failed embeddings with zero vectors",
			zap.Int("count", zeroFilled),
			zap.Int("dimension", dim),
		)
	}

	return results, nil
}

// embedBatch embeds texts with a bounded worker pool, storing successes in
// the cache. It returns the number of failures.
func (s *Service) embedBatch(ctx context.Context, texts []string) int {
	errs := make([]error, len(texts))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			vec, err := s.embedder.Embed(ctx, text)
			if err != nil {
				errs[i] = err
				return nil
			}
			s.cache.Set(text, vec)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			ctxzap.Debug(ctx, "embedding failed",
				zap.String("text_prefix", prefix(texts[i], 50)),
				zap.Error(err),
			)
		}
	}
	return failed
}

// EmbedQuery embeds a single text through the cache
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.cache.Get(text); ok {
		s.metrics.CacheLookup(true)
		return vec, nil
	}
	s.metrics.CacheLookup(false)

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	s.cache.Set(text, vec)
	return vec, nil
}

// Flush persists the cache
func (s *Service) Flush() error {
	return s.cache.Flush()
}

func countPending(texts []string, pending map[string]bool) int {
	n := 0
	for _, t := range texts {
		if pending[t] {
			n++
		}
	}
	return n
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
