package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/agent"
	"github.com/futig/mcq-reasoner/internal/api"
	answerapi "github.com/futig/mcq-reasoner/internal/api/answer"
	reportapi "github.com/futig/mcq-reasoner/internal/api/report"
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/embedding"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/integration/callback"
	embeddingconn "github.com/futig/mcq-reasoner/internal/integration/embedding"
	"github.com/futig/mcq-reasoner/internal/integration/llm"
	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
	"github.com/futig/mcq-reasoner/internal/pkg/validator"
	"github.com/futig/mcq-reasoner/internal/repository"
	"github.com/futig/mcq-reasoner/internal/retrieval"
	"github.com/futig/mcq-reasoner/internal/storage"
	"github.com/futig/mcq-reasoner/internal/tools"
	"github.com/futig/mcq-reasoner/internal/usecase/batch"
	"github.com/futig/mcq-reasoner/internal/usecase/corpus"
	"github.com/futig/mcq-reasoner/internal/usecase/inference"
	"github.com/futig/mcq-reasoner/internal/usecase/report"
)

// Build wires every component from cfg. The knowledge base is loaded and
// indexed only when retrieval is enabled; Postgres is opened only for the
// postgres checkpoint backend.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("building application",
		zap.String("environment", cfg.Environment),
		zap.String("strategy", string(cfg.PipelineCfg.Strategy)),
		zap.Bool("rag", cfg.PipelineCfg.EnableRAG),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	app := &App{cfg: cfg, logger: logger, metrics: metrics.NewMetrics()}

	// External service connectors (with mock support)
	var (
		modelClient interface {
			inference.ModelClient
			Model() string
		}
		embedder embedding.Embedder
	)
	if cfg.EnableMocks {
		logger.Info("using mock connectors for external services")
		modelClient = llm.NewMockConnector(cfg.LLMConnectorCfg.Model, logger)
		embedder = embeddingconn.NewMockConnector()
	} else {
		modelClient = llm.NewConnector(cfg.LLMConnectorCfg, app.metrics, logger)
		embedder = embeddingconn.NewConnector(cfg.EmbeddingConnectorCfg, app.metrics, logger)
	}
	app.modelName = modelClient.Model()
	if cfg.CallbackCfg.URL != "" {
		app.Callbacks = callback.NewConnector(cfg.CallbackCfg, app.metrics, logger)
	}

	// Embeddings
	cache, err := embedding.OpenCache(cfg.EmbeddingConnectorCfg.CachePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	app.embeddings = embedding.NewService(
		embedder,
		cache,
		cfg.EmbeddingConnectorCfg.BatchSize,
		cfg.EmbeddingConnectorCfg.Workers,
		app.metrics,
		logger,
	)

	// Retrieval
	p := cfg.PipelineCfg
	toolRegistry := tools.NewRegistry(app.metrics)

	var kb inference.KnowledgeBase
	if p.EnableRAG {
		knowledgeBase, err := loadKnowledgeBase(ctx, p.KnowledgeBasePath, app.embeddings, logger)
		if err != nil {
			return nil, err
		}
		app.knowledgeBase = knowledgeBase
		if knowledgeBase.Loaded() {
			kb = knowledgeBase
			toolRegistry.Register(tools.NewRAGSearch(knowledgeBase))
		}
	}

	var refiner inference.Refiner
	if p.RefineContext {
		refiner = retrieval.NewRefiner(app.embeddings, p.RefineThreshold, p.RefineChunkSize, p.RefineOverlap, p.RefineTopK)
	}

	var reasoner inference.Agent
	if p.Strategy == entity.StrategyAgent {
		reasoner = agent.New(modelClient, toolRegistry, p.AgentMaxSteps, app.metrics)
		logger.Info("agent tools registered", zap.Strings("tools", toolRegistry.Names()))
	}

	app.Inference = inference.NewUsecase(modelClient, reasoner, kb, refiner, inference.Options{
		Strategy:        p.Strategy,
		AutoCoT:         p.AutoCoT,
		EnableRAG:       kb != nil,
		TopK:            p.TopK,
		RAGContextChars: p.RAGContextChars,
		RefineContext:   p.RefineContext,
		RefineThreshold: p.RefineThreshold,
		MaxInputTokens:  p.MaxInputTokens,
	})

	// Checkpoints
	var checkpoints repository.CheckpointStore
	switch cfg.CheckpointCfg.Backend {
	case config.CheckpointPostgres:
		db, err := setupDatabase(ctx, cfg.CheckpointCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}
		app.db = db
		checkpoints = repository.NewCheckpointPostgres(db)
	default:
		checkpoints = repository.NewCheckpointFile(p.OutputDir)
	}
	app.Batch = batch.NewUsecase(app.Inference, checkpoints, app.metrics)

	// Artifacts
	artifacts, err := storage.New(ctx, cfg.StorageCfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	app.Reports = report.NewUsecase(checkpoints, artifacts, formatter.NewFactory())

	app.Corpus = corpus.NewUsecase(app.embeddings, p.CorpusChunkSize, p.CorpusOverlap, corpus.DefaultCategory)

	logger.Info("application built", zap.String("model", app.modelName))
	return app, nil
}

func loadKnowledgeBase(ctx context.Context, path string, embedder *embedding.Service, logger *zap.Logger) (*retrieval.KnowledgeBase, error) {
	chunks, err := repository.LoadKnowledgeBase(path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	kb := retrieval.NewKnowledgeBase(embedder, nil, logger)
	if len(chunks) == 0 {
		logger.Warn("knowledge base is empty, retrieval disabled", zap.String("path", path))
		return kb, nil
	}

	buildErr := kb.Build(ctx, chunks)
	// keep whatever was embedded even when the build was interrupted
	if err := embedder.Flush(); err != nil {
		logger.Warn("could not flush embedding cache", zap.Error(err))
	}
	if buildErr != nil {
		return nil, fmt.Errorf("build knowledge base: %w", buildErr)
	}
	return kb, nil
}

// Server builds the HTTP server for the serve command
func (a *App) Server() *http.Server {
	answerHandler := answerapi.NewHandler(a.Inference, validator.NewQuestionValidator(a.cfg.MaxQuestionChars))
	reportHandler := reportapi.NewHandler(a.Reports)

	router := api.SetupRouter(answerHandler, reportHandler, a.healthCheck, a.cfg.ServerRequestTimeout, a.logger)

	return &http.Server{
		Addr:              a.cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      a.cfg.ServerRequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (a *App) healthCheck(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.Ping(ctx); err != nil {
			return fmt.Errorf("checkpoint database: %w", err)
		}
	}
	if a.cfg.PipelineCfg.EnableRAG && (a.knowledgeBase == nil || !a.knowledgeBase.Loaded()) {
		return entity.ErrKnowledgeBaseNotLoaded
	}
	return nil
}
