package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/builder"
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
	"github.com/futig/mcq-reasoner/internal/pkg/logger"
	"github.com/futig/mcq-reasoner/internal/repository"
	"github.com/futig/mcq-reasoner/internal/usecase/batch"
)

// setup loads configuration and returns a context carrying the logger
func setup(cmd *cobra.Command, g *globalFlags) (context.Context, *config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(g.environment)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.mocks {
		cfg.EnableMocks = true
	}

	development := cfg.Environment == "local" || cfg.Environment == "dev"
	log, err := logger.New(cfg.LogLevel, development)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	ctx := ctxzap.ToContext(cmd.Context(), log.With(zap.String("command", cmd.Name())))
	return ctx, cfg, log, nil
}

// modelLabel turns a model identifier into a file-name friendly label
func modelLabel(model string) string {
	return strings.NewReplacer("/", "-", ":", "-", " ", "-", "_", "-").Replace(model)
}

func (f runFlags) key(cfg *config.Config) (entity.RunKey, error) {
	key := entity.RunKey{
		Model:    f.label,
		Strategy: cfg.PipelineCfg.Strategy,
		Name:     f.name,
	}
	if key.Model == "" {
		key.Model = modelLabel(cfg.LLMConnectorCfg.Model)
	}
	if f.strategy != "" {
		key.Strategy = entity.Strategy(f.strategy)
	}
	if !key.Strategy.Valid() {
		return key, fmt.Errorf("%w: unknown strategy %q", entity.ErrInvalidParameter, key.Strategy)
	}
	return key, nil
}

func datasetName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func runInfer(cmd *cobra.Command, g *globalFlags, run runFlags, dataset string, limit int, ragSet, rag, refineSet, refine bool) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	if run.name == "" {
		run.name = datasetName(dataset)
	}
	key, err := run.key(cfg)
	if err != nil {
		return err
	}
	cfg.PipelineCfg.Strategy = key.Strategy
	if ragSet {
		cfg.PipelineCfg.EnableRAG = rag
	}
	if refineSet {
		cfg.PipelineCfg.RefineContext = refine
	}

	questions, err := repository.LoadQuestions(dataset)
	if err != nil {
		return err
	}

	app, err := builder.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	summary, err := app.Batch.Run(ctx, questions, batch.Options{
		Key:           key,
		Limit:         limit,
		ProgressEvery: cfg.PipelineCfg.ProgressEvery,
		RecordTime:    cfg.PipelineCfg.RecordTime,
	})
	if app.Callbacks != nil {
		notifyCtx := context.WithoutCancel(ctx)
		if err != nil {
			app.Callbacks.RunFailed(notifyCtx, key, err)
		} else {
			app.Callbacks.RunFinished(notifyCtx, summary)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d processed, %d skipped of %d\n", key, summary.Processed, summary.Skipped, summary.Total)
	if summary.Scored > 0 {
		fmt.Fprintf(out, "accuracy: %d/%d = %.2f%%\n", summary.Correct, summary.Scored, summary.Accuracy()*100)
	}
	if summary.Interrupted {
		fmt.Fprintln(out, "interrupted: re-run the same command to resume")
	}
	return nil
}

func runEmbed(cmd *cobra.Command, g *globalFlags, dataset string) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	questions, err := repository.LoadQuestions(dataset)
	if err != nil {
		return err
	}

	cfg.PipelineCfg.EnableRAG = false
	app, err := builder.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	n, err := app.Corpus.EmbedQuestions(ctx, questions)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "embedded %d questions into %s\n", n, cfg.EmbeddingConnectorCfg.CachePath)
	return nil
}

func runIngest(cmd *cobra.Command, g *globalFlags, corpusPath, kbPath string, maxArticles int) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	if kbPath == "" {
		kbPath = cfg.PipelineCfg.KnowledgeBasePath
	}

	articles, err := repository.LoadArticles(corpusPath)
	if err != nil {
		return err
	}
	existing, err := repository.LoadKnowledgeBase(kbPath)
	if err != nil {
		return err
	}

	cfg.PipelineCfg.EnableRAG = false
	app, err := builder.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	merged, summary := app.Corpus.Ingest(ctx, existing, articles, maxArticles)
	if err := repository.WriteJSON(kbPath, merged); err != nil {
		return fmt.Errorf("save knowledge base: %w", err)
	}
	metaPath := filepath.Join(filepath.Dir(kbPath), "metadata.json")
	if err := repository.WriteJSON(metaPath, repository.DescribeKnowledgeBase(merged)); err != nil {
		return fmt.Errorf("save knowledge base metadata: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d articles: %d new chunks, %d total in %s\n",
		summary.Articles, summary.Added, len(merged), kbPath)
	return nil
}

func runPreprocess(cmd *cobra.Command, g *globalFlags, dataset string) error {
	_, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	questions, err := repository.LoadQuestions(dataset)
	if err != nil {
		return err
	}

	stats := repository.DescribeQuestions(questions)
	out := filepath.Join(cfg.PipelineCfg.OutputDir, datasetName(dataset)+"_info.json")
	if err := repository.WriteJSON(out, stats); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d questions (%d with context, %d without) -> %s\n",
		stats.Total, stats.WithContext, stats.WithoutContext, out)
	return nil
}

func runEval(cmd *cobra.Command, g *globalFlags, run runFlags, file string) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	var ev *entity.Evaluation
	if file != "" {
		results, err := repository.ReadResults(file)
		if err != nil {
			return err
		}
		e := entity.Evaluate(datasetName(file), results)
		ev = &e
	} else {
		key, err := run.key(cfg)
		if err != nil {
			return err
		}
		cfg.PipelineCfg.EnableRAG = false
		app, err := builder.Build(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("build application: %w", err)
		}
		defer app.Close()

		if ev, err = app.Reports.Evaluate(ctx, key); err != nil {
			return err
		}
	}

	body, err := formatter.NewMarkdownFormatter().Format(*ev)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}

func runSubmit(cmd *cobra.Command, g *globalFlags, run runFlags, formats []string) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	key, err := run.key(cfg)
	if err != nil {
		return err
	}

	cfg.PipelineCfg.EnableRAG = false
	app, err := builder.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	reportFormats := make([]formatter.Format, len(formats))
	for i, f := range formats {
		reportFormats[i] = formatter.Format(strings.ToLower(strings.TrimSpace(f)))
	}

	locations, err := app.Reports.Export(ctx, key, reportFormats...)
	for _, loc := range locations {
		fmt.Fprintln(cmd.OutOrStdout(), loc)
	}
	return err
}

func runServe(cmd *cobra.Command, g *globalFlags, ragSet, rag bool) error {
	ctx, cfg, log, err := setup(cmd, g)
	if err != nil {
		return err
	}
	defer log.Sync()

	if ragSet {
		cfg.PipelineCfg.EnableRAG = rag
	}

	app, err := builder.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.Close()

	return app.Serve(ctx)
}
