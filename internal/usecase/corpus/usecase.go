package corpus

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/retrieval"
)

// DefaultCategory tags chunks produced from a corpus dump
const DefaultCategory = "wikipedia_hf"

// IngestSummary reports what an ingest added
type IngestSummary struct {
	Articles  int
	Existing  int
	Added     int
	Duplicate int
}

// CorpusUsecase prepares retrieval material ahead of inference runs
type CorpusUsecase struct {
	embedder  DocumentEmbedder
	chunkSize int
	overlap   int
	category  string
}

func NewUsecase(embedder DocumentEmbedder, chunkSize, overlap int, category string) *CorpusUsecase {
	if category == "" {
		category = DefaultCategory
	}
	return &CorpusUsecase{
		embedder:  embedder,
		chunkSize: chunkSize,
		overlap:   overlap,
		category:  category,
	}
}

// Ingest chunks up to maxArticles articles (0 for all) into fixed windows
// and appends them to existing. Chunks whose ID is already present are
// skipped, so re-ingesting the same dump is a no-op.
func (uc *CorpusUsecase) Ingest(ctx context.Context, existing []entity.KnowledgeChunk, articles []entity.Article, maxArticles int) ([]entity.KnowledgeChunk, IngestSummary) {
	summary := IngestSummary{Existing: len(existing)}

	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.ID] = true
	}

	merged := append([]entity.KnowledgeChunk(nil), existing...)
	for _, a := range articles {
		if maxArticles > 0 && summary.Articles >= maxArticles {
			break
		}
		if ctx.Err() != nil {
			break
		}

		for _, c := range retrieval.ChunkArticle(a, uc.chunkSize, uc.overlap, uc.category) {
			if seen[c.ID] {
				summary.Duplicate++
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
			summary.Added++
		}

		summary.Articles++
		if summary.Articles%100 == 0 {
			ctxzap.Debug(ctx, "ingest progress", zap.Int("articles", summary.Articles))
		}
	}

	ctxzap.Info(ctx, "corpus ingested",
		zap.Int("articles", summary.Articles),
		zap.Int("existing_chunks", summary.Existing),
		zap.Int("new_chunks", summary.Added),
		zap.Int("duplicates", summary.Duplicate),
	)
	return merged, summary
}

// EmbedQuestions warms the embedding cache with the question texts (without
// embedded passages) so later retrieval runs skip those calls
func (uc *CorpusUsecase) EmbedQuestions(ctx context.Context, questions []entity.Question) (int, error) {
	texts := make([]string, 0, len(questions))
	for i := range questions {
		if text := questions[i].QuestionText(); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return 0, entity.ErrNoQuestions
	}

	vectors, err := uc.embedder.EmbedDocuments(ctx, texts)
	if ferr := uc.embedder.Flush(); ferr != nil {
		ctxzap.Warn(ctx, "could not flush embedding cache", zap.Error(ferr))
	}
	if err != nil {
		return 0, fmt.Errorf("embed questions: %w", err)
	}

	ctxzap.Info(ctx, "question embeddings ready", zap.Int("questions", len(vectors)))
	return len(vectors), nil
}
