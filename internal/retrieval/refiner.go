package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChunkSeparator joins refined chunks so the model can see where text was cut
const ChunkSeparator = "\n\n...\n\n"

// Embedder is the slice of the embedding service retrieval needs
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Refiner shrinks a long passage to the parts most relevant to a query
type Refiner struct {
	splitter  *RecursiveSplitter
	embedder  Embedder
	threshold int
	topK      int
}

func NewRefiner(embedder Embedder, threshold, chunkSize, overlap, topK int) *Refiner {
	if topK < 1 {
		topK = 1
	}
	return &Refiner{
		splitter:  NewRecursiveSplitter(chunkSize, overlap),
		embedder:  embedder,
		threshold: threshold,
		topK:      topK,
	}
}

// Refine returns passage unchanged when it is at most threshold characters
// or splits into a single chunk. Otherwise the passage is split, the top-k
// chunks by similarity to query are selected, and they are joined back in
// their original order.
func (r *Refiner) Refine(ctx context.Context, query, passage string) (string, error) {
	if runeLen(passage) <= r.threshold {
		return passage, nil
	}

	chunks := r.splitter.Split(passage)
	if len(chunks) <= 1 {
		return passage, nil
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embed passage chunks: %w", err)
	}
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed refinement query: %w", err)
	}

	index := NewFlatIndex()
	index.Add(vectors...)

	k := r.topK
	if k > len(chunks) {
		k = len(chunks)
	}
	hits := index.Search(queryVec, k)
	sort.Slice(hits, func(a, b int) bool { return hits[a].ID < hits[b].ID })

	selected := make([]string, len(hits))
	for i, h := range hits {
		selected[i] = chunks[h.ID]
	}
	refined := strings.Join(selected, ChunkSeparator)

	ctxzap.Extract(ctx).Debug("context refined",
		zap.Int("original_chars", runeLen(passage)),
		zap.Int("refined_chars", runeLen(refined)),
		zap.Int("chunks", len(chunks)),
		zap.Int("selected", len(hits)),
	)
	return refined, nil
}
