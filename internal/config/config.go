package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/futig/mcq-reasoner/internal/entity"
	pkgRetry "github.com/futig/mcq-reasoner/internal/pkg/retry"
)

const (
	defaultEmbeddingAttempts = 5
	defaultEmbeddingDelay    = 2 * time.Second
	defaultEmbeddingMaxDelay = 32 * time.Second
)

// Config holds the application configuration
type Config struct {
	// External services
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`

	PipelineCfg   PipelineConfig   `envPrefix:"PIPELINE_"`
	CheckpointCfg CheckpointConfig `envPrefix:"CHECKPOINT_"`
	StorageCfg    StorageConfig    `envPrefix:"STORAGE_"`
	CallbackCfg   CallbackConfig   `envPrefix:"CALLBACK_"`

	// Server configuration (serve command only)
	ServerAddr           string        `env:"SERVER_ADDR" envDefault:":8080"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"10m"`
	MaxQuestionChars     int           `env:"SERVER_MAX_QUESTION_CHARS" envDefault:"100000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration     `env:"TIMEOUT" envDefault:"300s"`
	ConnTimeout           time.Duration     `env:"CONN_TIMEOUT" envDefault:"30s"`
	KeepAlive             time.Duration     `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration     `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration     `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"300s"`
	Token                 string            `env:"TOKEN"`
	TokenID               string            `env:"TOKEN_ID"`
	TokenKey              string            `env:"TOKEN_KEY"`
	ExtraHeaders          map[string]string `env:"EXTRA_HEADERS"`
	Url                   string            `env:"SERVICE_URL,notEmpty"`
	// RateLimit is the minimum spacing between outbound requests
	RateLimit time.Duration `env:"RATE_LIMIT"`
	// MaxIdleConnsPerHost should cover the number of concurrent callers
	MaxIdleConnsPerHost int  `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"16"`
	InsecureSkipVerify  bool `env:"INSECURE_SKIP_VERIFY"`
	LogPayloads         bool `env:"LOG_PAYLOADS"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	ChatEndpoint string               `env:"CHAT_ENDPOINT" envDefault:"/v1/chat/completions"`
	Model        string               `env:"MODEL,notEmpty"`
	Temperature  float64              `env:"TEMPERATURE" envDefault:"0"`
	MaxTokens    int                  `env:"MAX_TOKENS" envDefault:"2048"`
	Seed         int                  `env:"SEED" envDefault:"42"`
	Retry        pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Endpoint  string               `env:"ENDPOINT" envDefault:"/v1/embeddings"`
	Model     string               `env:"MODEL,notEmpty"`
	BatchSize int                  `env:"BATCH_SIZE" envDefault:"100"`
	Workers   int                  `env:"WORKERS" envDefault:"12"`
	CachePath string               `env:"CACHE_PATH" envDefault:"outputs/embedding_cache.gob"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// PipelineConfig controls per-question inference
type PipelineConfig struct {
	Strategy entity.Strategy `env:"STRATEGY" envDefault:"direct"`
	// AutoCoT switches direct questions to chain-of-thought when context is present
	AutoCoT bool `env:"AUTO_COT" envDefault:"true"`

	EnableRAG         bool   `env:"ENABLE_RAG" envDefault:"false"`
	KnowledgeBasePath string `env:"KNOWLEDGE_BASE_PATH" envDefault:"data/knowledge_base.json"`
	TopK              int    `env:"TOP_K" envDefault:"3"`
	RAGContextChars   int    `env:"RAG_CONTEXT_CHARS" envDefault:"3000"`
	CorpusChunkSize   int    `env:"CORPUS_CHUNK_SIZE" envDefault:"1500"`
	CorpusOverlap     int    `env:"CORPUS_CHUNK_OVERLAP" envDefault:"200"`

	RefineContext   bool `env:"REFINE_CONTEXT" envDefault:"false"`
	RefineThreshold int  `env:"REFINE_THRESHOLD" envDefault:"1500"`
	RefineChunkSize int  `env:"REFINE_CHUNK_SIZE" envDefault:"1200"`
	RefineOverlap   int  `env:"REFINE_CHUNK_OVERLAP" envDefault:"100"`
	RefineTopK      int  `env:"REFINE_TOP_K" envDefault:"5"`

	AgentMaxSteps  int `env:"AGENT_MAX_STEPS" envDefault:"5"`
	MaxInputTokens int `env:"MAX_INPUT_TOKENS" envDefault:"30000"`

	ProgressEvery int    `env:"PROGRESS_EVERY" envDefault:"10"`
	RecordTime    bool   `env:"RECORD_TIME" envDefault:"true"`
	OutputDir     string `env:"OUTPUT_DIR" envDefault:"outputs"`
}

type CheckpointBackend string

const (
	CheckpointFile     CheckpointBackend = "file"
	CheckpointPostgres CheckpointBackend = "postgres"
)

type CheckpointConfig struct {
	Backend CheckpointBackend `env:"BACKEND" envDefault:"file"`

	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"4"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
)

// StorageConfig selects where exported artifacts (submissions, reports) go
type StorageConfig struct {
	Type         StorageType `env:"TYPE" envDefault:"local"`
	LocalPath    string      `env:"LOCAL_PATH" envDefault:"outputs/artifacts"`
	S3Bucket     string      `env:"S3_BUCKET"`
	S3Region     string      `env:"S3_REGION" envDefault:"us-east-1"`
	S3Prefix     string      `env:"S3_PREFIX"`
	S3Endpoint   string      `env:"S3_ENDPOINT"`
	AWSAccessKey string      `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string      `env:"AWS_SECRET_ACCESS_KEY"`
}

// CallbackConfig points at an optional webhook notified when a batch run
// ends. An empty URL disables it.
type CallbackConfig struct {
	URL     string        `env:"URL"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// LoadConfig loads .env.<environment> (if present) and parses the process
// environment into Config.
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	return Parse(environment)
}

// Parse reads Config from the current process environment only
func Parse(environment string) (*Config, error) {
	cfg := &Config{}
	cfg.LLMConnectorCfg.Retry = *pkgRetry.DefaultRetryConfig()
	cfg.EmbeddingConnectorCfg.Retry = pkgRetry.RetryConfig{
		Attempts: defaultEmbeddingAttempts,
		Delay:    defaultEmbeddingDelay,
		MaxDelay: defaultEmbeddingMaxDelay,
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	p := cfg.PipelineCfg
	if !p.Strategy.Valid() {
		errs = append(errs, fmt.Sprintf("PIPELINE_STRATEGY must be one of direct, cot, agent, got %q", p.Strategy))
	}
	if p.TopK < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_TOP_K must be positive, got %d", p.TopK))
	}
	if p.AgentMaxSteps < 1 || p.AgentMaxSteps > 50 {
		errs = append(errs, fmt.Sprintf("PIPELINE_AGENT_MAX_STEPS must be between 1 and 50, got %d", p.AgentMaxSteps))
	}
	if p.RefineChunkSize < 1 || p.RefineOverlap < 0 || p.RefineOverlap >= p.RefineChunkSize {
		errs = append(errs, fmt.Sprintf("PIPELINE_REFINE_CHUNK_OVERLAP(%d) must be in [0, PIPELINE_REFINE_CHUNK_SIZE(%d))", p.RefineOverlap, p.RefineChunkSize))
	}
	if p.CorpusChunkSize < 1 || p.CorpusOverlap < 0 || p.CorpusOverlap >= p.CorpusChunkSize {
		errs = append(errs, fmt.Sprintf("PIPELINE_CORPUS_CHUNK_OVERLAP(%d) must be in [0, PIPELINE_CORPUS_CHUNK_SIZE(%d))", p.CorpusOverlap, p.CorpusChunkSize))
	}
	if p.RefineTopK < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_REFINE_TOP_K must be positive, got %d", p.RefineTopK))
	}
	if p.MaxInputTokens < 1 {
		errs = append(errs, fmt.Sprintf("PIPELINE_MAX_INPUT_TOKENS must be positive, got %d", p.MaxInputTokens))
	}

	e := cfg.EmbeddingConnectorCfg
	if e.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be positive, got %d", e.BatchSize))
	}
	if e.Workers < 1 || e.Workers > 64 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_WORKERS must be between 1 and 64, got %d", e.Workers))
	}

	c := cfg.CheckpointCfg
	switch c.Backend {
	case CheckpointFile:
	case CheckpointPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "CHECKPOINT_DATABASE_URL is required for the postgres backend")
		}
		if c.DBMaxConns < 1 || c.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("CHECKPOINT_DB_MAX_CONNS must be between 1 and 200, got %d", c.DBMaxConns))
		}
		if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			errs = append(errs, fmt.Sprintf("CHECKPOINT_DB_MIN_CONNS must be between 0 and CHECKPOINT_DB_MAX_CONNS(%d), got %d", c.DBMaxConns, c.DBMinConns))
		}
	default:
		errs = append(errs, fmt.Sprintf("CHECKPOINT_BACKEND must be file or postgres, got %q", c.Backend))
	}

	s := cfg.StorageCfg
	switch s.Type {
	case StorageLocal:
	case StorageS3:
		if s.S3Bucket == "" {
			errs = append(errs, "STORAGE_S3_BUCKET is required for s3 storage")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_TYPE must be local or s3, got %q", s.Type))
	}

	if len(errs) > 0 {
		return errors.New("configuration validation errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
