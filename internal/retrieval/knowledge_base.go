package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// categoryOverFetch widens the candidate set when results are post-filtered
const categoryOverFetch = 3

// KnowledgeBase is the global retrieval store over knowledge chunks
type KnowledgeBase struct {
	mu       sync.RWMutex
	chunks   []entity.KnowledgeChunk
	index    Index
	embedder Embedder
	logger   *zap.Logger
}

func NewKnowledgeBase(embedder Embedder, index Index, logger *zap.Logger) *KnowledgeBase {
	if index == nil {
		index = NewFlatIndex()
	}
	return &KnowledgeBase{
		index:    index,
		embedder: embedder,
		logger:   logger,
	}
}

// Build embeds chunks and adds them to the index. Chunks without an ID get
// a generated one. Embedding progress is checkpointed by the embedding cache,
// so an interrupted build resumes cheaply.
func (kb *KnowledgeBase) Build(ctx context.Context, chunks []entity.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		texts[i] = chunks[i].Content
	}

	kb.logger.Info("building knowledge base index", zap.Int("chunks", len(chunks)))
	vectors, err := kb.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed knowledge base: %w", err)
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.index.Add(vectors...)
	kb.chunks = append(kb.chunks, chunks...)

	kb.logger.Info("knowledge base ready", zap.Int("indexed", kb.index.Len()))
	return nil
}

// Loaded reports whether anything has been indexed
func (kb *KnowledgeBase) Loaded() bool {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.chunks) > 0
}

func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.chunks)
}

// Retrieve returns up to topK chunks by descending relevance. With a
// category, topK*3 candidates are fetched and filtered down.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int, category string) ([]entity.RetrievedChunk, error) {
	if !kb.Loaded() {
		return nil, entity.ErrKnowledgeBaseNotLoaded
	}
	if topK <= 0 {
		return nil, nil
	}

	queryVec, err := kb.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed retrieval query: %w", err)
	}

	fetch := topK
	if category != "" {
		fetch = topK * categoryOverFetch
	}

	kb.mu.RLock()
	defer kb.mu.RUnlock()

	results := make([]entity.RetrievedChunk, 0, topK)
	for _, hit := range kb.index.Search(queryVec, fetch) {
		c := kb.chunks[hit.ID]
		if category != "" && c.Category != category {
			continue
		}
		results = append(results, entity.RetrievedChunk{
			Content:  c.Content,
			Title:    c.Title,
			URL:      c.URL,
			Category: c.Category,
			Score:    hit.Score,
			Index:    hit.ID,
		})
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

// FormatContext renders chunks as "[title]\ncontent" blocks separated by a
// blank line. A chunk that would push the total past maxChars ends the
// output; chunks are never cut.
func FormatContext(chunks []entity.RetrievedChunk, maxChars int) string {
	parts := make([]string, 0, len(chunks))
	total := 0
	for _, c := range chunks {
		part := "[" + c.Title + "]\n" + c.Content
		n := runeLen(part)
		if total+n > maxChars {
			break
		}
		parts = append(parts, part)
		total += n
	}
	return strings.Join(parts, "\n\n")
}

// ChunkArticle cuts an article into fixed windows and labels each window as
// a knowledge chunk of the given category.
func ChunkArticle(a entity.Article, size, overlap int, category string) []entity.KnowledgeChunk {
	windows := FixedChunks(a.Text, size, overlap)
	chunks := make([]entity.KnowledgeChunk, len(windows))
	for i, w := range windows {
		chunks[i] = entity.KnowledgeChunk{
			ID:          fmt.Sprintf("%s_%s_%d", category, a.Title, i),
			Title:       a.Title,
			Content:     w,
			URL:         a.URL,
			Category:    category,
			ChunkIndex:  i,
			TotalChunks: len(windows),
		}
	}
	return chunks
}
