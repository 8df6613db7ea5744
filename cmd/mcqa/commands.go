package main

import (
	"github.com/spf13/cobra"
)

type globalFlags struct {
	environment string
	logLevel    string
	mocks       bool
}

// runFlags select the checkpoint a command reads or writes
type runFlags struct {
	label    string
	strategy string
	name     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.label, "label", "", "Model label used in run keys (defaults to the configured model)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Inference strategy: direct, cot or agent (defaults to PIPELINE_STRATEGY)")
	cmd.Flags().StringVar(&f.name, "name", "", "Run name suffix, e.g. the dataset name")
}

func buildRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "mcqa",
		Short:        "Multiple-choice question answering with LLM reasoning and retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.environment, "env", "local", "Environment name; loads .env.<env> when present")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&g.mocks, "mock", false, "Use mock model and embedding connectors")

	rootCmd.AddCommand(
		buildInferCmd(g),
		buildEmbedCmd(g),
		buildIngestCmd(g),
		buildPreprocessCmd(g),
		buildEvalCmd(g),
		buildSubmitCmd(g),
		buildServeCmd(g),
	)
	return rootCmd
}

func buildInferCmd(g *globalFlags) *cobra.Command {
	var (
		run     runFlags
		dataset string
		limit   int
		rag     bool
		refine  bool
	)
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Answer every question of a dataset, resuming from the checkpoint",
		Long: `Answer every question of a dataset sequentially.

Results are checkpointed after each question under a key built from
--label, --strategy and --name. Re-running the same command skips answered
questions; SIGINT stops after the current question.`,
		Example: `  mcqa infer --dataset data/val.json
  mcqa infer --dataset data/test.json --strategy agent --rag --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, g, run, dataset, limit, cmd.Flags().Changed("rag"), rag, cmd.Flags().Changed("refine"), refine)
		},
	}
	run.register(cmd)
	cmd.Flags().StringVar(&dataset, "dataset", "", "Path to the question set (JSON)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only consider the first N questions")
	cmd.Flags().BoolVar(&rag, "rag", false, "Retrieve context from the knowledge base (overrides PIPELINE_ENABLE_RAG)")
	cmd.Flags().BoolVar(&refine, "refine", false, "Refine long passages (overrides PIPELINE_REFINE_CONTEXT)")
	cobra.CheckErr(cmd.MarkFlagRequired("dataset"))
	return cmd
}

func buildEmbedCmd(g *globalFlags) *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Pre-compute question embeddings into the embedding cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(cmd, g, dataset)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Path to the question set (JSON)")
	cobra.CheckErr(cmd.MarkFlagRequired("dataset"))
	return cmd
}

func buildIngestCmd(g *globalFlags) *cobra.Command {
	var (
		corpusPath  string
		kbPath      string
		maxArticles int
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk a corpus dump into the knowledge base",
		Long: `Chunk articles from a corpus dump (JSON array or JSON lines with
title, text or content, url) into fixed overlapping windows and append them
to the knowledge base file. Already present chunk IDs are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, g, corpusPath, kbPath, maxArticles)
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Path to the corpus dump")
	cmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge base file (defaults to PIPELINE_KNOWLEDGE_BASE_PATH)")
	cmd.Flags().IntVar(&maxArticles, "max-articles", 50000, "Maximum number of articles to ingest, 0 for all")
	cobra.CheckErr(cmd.MarkFlagRequired("corpus"))
	return cmd
}

func buildPreprocessCmd(g *globalFlags) *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Write per-question statistics of a dataset to <name>_info.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreprocess(cmd, g, dataset)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Path to the question set (JSON)")
	cobra.CheckErr(cmd.MarkFlagRequired("dataset"))
	return cmd
}

func buildEvalCmd(g *globalFlags) *cobra.Command {
	var (
		run  runFlags
		file string
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Report accuracy and sample errors of a run",
		Example: `  mcqa eval --strategy cot --name val
  mcqa eval --file outputs/results_small_direct.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, g, run, file)
		},
	}
	run.register(cmd)
	cmd.Flags().StringVar(&file, "file", "", "Evaluate a results file instead of a checkpointed run")
	return cmd
}

func buildSubmitCmd(g *globalFlags) *cobra.Command {
	var (
		run     runFlags
		formats []string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Export submission CSVs, results and reports of a run to artifact storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, g, run, formats)
		},
	}
	run.register(cmd)
	cmd.Flags().StringSliceVar(&formats, "format", []string{"markdown"}, "Report formats: markdown, pdf, json")
	return cmd
}

func buildServeCmd(g *globalFlags) *cobra.Command {
	var rag bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve single-question answering and run reports over HTTP",
		Long: `Start the HTTP API:

  POST /answers                                  answer one question
  GET  /runs/{label}/{strategy}/evaluation?name= accuracy of a checkpointed run
  GET  /runs/{label}/{strategy}/report?format=   markdown, pdf or json report
  GET  /health, /metrics

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, cmd.Flags().Changed("rag"), rag)
		},
	}
	cmd.Flags().BoolVar(&rag, "rag", false, "Retrieve context from the knowledge base (overrides PIPELINE_ENABLE_RAG)")
	return cmd
}
