package builder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/embedding"
	"github.com/futig/mcq-reasoner/internal/integration/callback"
	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/futig/mcq-reasoner/internal/retrieval"
	"github.com/futig/mcq-reasoner/internal/usecase/batch"
	"github.com/futig/mcq-reasoner/internal/usecase/corpus"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
	"github.com/futig/mcq-reasoner/internal/usecase/report"
)

const shutdownTimeout = 30 * time.Second

// App holds the wired components shared by all commands
type App struct {
	Inference *inference.InferenceUsecase
	Batch     *batch.BatchUsecase
	Reports   *report.ReportUsecase
	Corpus    *corpus.CorpusUsecase
	// Callbacks is nil when no webhook is configured
	Callbacks *callback.Connector

	cfg           *config.Config
	modelName     string
	embeddings    *embedding.Service
	knowledgeBase *retrieval.KnowledgeBase
	db            *pgxpool.Pool
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// ModelName is the configured model identifier
func (a *App) ModelName() string {
	return a.modelName
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully
func (a *App) Serve(ctx context.Context) error {
	server := a.Server()

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		a.logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down server gracefully")
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// Close flushes the embedding cache and releases the database pool
func (a *App) Close() {
	if a.embeddings != nil {
		if err := a.embeddings.Flush(); err != nil {
			a.logger.Warn("could not flush embedding cache", zap.Error(err))
		}
	}
	if a.db != nil {
		a.logger.Info("closing database connections")
		a.db.Close()
	}
	a.logger.Info("application stopped")
}
