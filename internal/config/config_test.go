package config

import (
	"strings"
	"testing"
	"time"

	"github.com/futig/mcq-reasoner/internal/entity"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_SERVICE_URL", "http://llm.local")
	t.Setenv("LLM_MODEL", "small")
	t.Setenv("EMBEDDING_SERVICE_URL", "http://emb.local")
	t.Setenv("EMBEDDING_MODEL", "embed")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse("test")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.PipelineCfg.Strategy != entity.StrategyDirect {
		t.Errorf("Strategy = %q, want direct", cfg.PipelineCfg.Strategy)
	}
	if cfg.LLMConnectorCfg.Retry.Attempts != 0 {
		t.Errorf("retry attempts = %d, want 0 (unbounded)", cfg.LLMConnectorCfg.Retry.Attempts)
	}
	if cfg.LLMConnectorCfg.Retry.Delay != 5*time.Second || cfg.LLMConnectorCfg.Retry.MaxDelay != 120*time.Second {
		t.Errorf("retry delays = %v/%v, want 5s/120s", cfg.LLMConnectorCfg.Retry.Delay, cfg.LLMConnectorCfg.Retry.MaxDelay)
	}
	if cfg.LLMConnectorCfg.Seed != 42 || cfg.LLMConnectorCfg.MaxTokens != 2048 {
		t.Errorf("seed/max tokens = %d/%d", cfg.LLMConnectorCfg.Seed, cfg.LLMConnectorCfg.MaxTokens)
	}
	if cfg.EmbeddingConnectorCfg.Retry.Attempts != 5 || cfg.EmbeddingConnectorCfg.Retry.Delay != 2*time.Second {
		t.Errorf("embedding retry = %+v, want 5 attempts from 2s", cfg.EmbeddingConnectorCfg.Retry)
	}
	if cfg.EmbeddingConnectorCfg.BatchSize != 100 || cfg.EmbeddingConnectorCfg.Workers != 12 {
		t.Errorf("embedding batch/workers = %d/%d", cfg.EmbeddingConnectorCfg.BatchSize, cfg.EmbeddingConnectorCfg.Workers)
	}
	if cfg.PipelineCfg.RefineThreshold != 1500 || cfg.PipelineCfg.RefineTopK != 5 {
		t.Errorf("refine threshold/topK = %d/%d", cfg.PipelineCfg.RefineThreshold, cfg.PipelineCfg.RefineTopK)
	}
	if cfg.CheckpointCfg.Backend != CheckpointFile {
		t.Errorf("checkpoint backend = %q, want file", cfg.CheckpointCfg.Backend)
	}
	if cfg.CallbackCfg.URL != "" || cfg.CallbackCfg.Timeout != 10*time.Second {
		t.Errorf("callback = %+v, want disabled with 10s timeout", cfg.CallbackCfg)
	}
	if cfg.LLMConnectorCfg.MaxIdleConnsPerHost != 16 {
		t.Errorf("max idle conns per host = %d, want 16", cfg.LLMConnectorCfg.MaxIdleConnsPerHost)
	}
	if cfg.Environment != "test" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
}

func TestParseCredentialsAndHeaders(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_TOKEN", "bearer")
	t.Setenv("LLM_TOKEN_ID", "id")
	t.Setenv("LLM_TOKEN_KEY", "key")
	t.Setenv("LLM_EXTRA_HEADERS", "ngrok-skip-browser-warning:true")
	t.Setenv("LLM_RATE_LIMIT", "3s")
	t.Setenv("LLM_RETRY_ATTEMPTS", "7")

	cfg, err := Parse("test")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	llm := cfg.LLMConnectorCfg
	if llm.Token != "bearer" || llm.TokenID != "id" || llm.TokenKey != "key" {
		t.Errorf("credentials = %q/%q/%q", llm.Token, llm.TokenID, llm.TokenKey)
	}
	if llm.ExtraHeaders["ngrok-skip-browser-warning"] != "true" {
		t.Errorf("ExtraHeaders = %v", llm.ExtraHeaders)
	}
	if llm.Retry.Attempts != 7 || llm.Retry.Delay != 5*time.Second {
		t.Errorf("llm retry = %+v, want 7 attempts keeping the 5s default delay", llm.Retry)
	}
	if llm.RateLimit != 3*time.Second {
		t.Errorf("RateLimit = %v, want 3s", llm.RateLimit)
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown strategy",
			env:     map[string]string{"PIPELINE_STRATEGY": "guess"},
			wantErr: "PIPELINE_STRATEGY",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"CHECKPOINT_BACKEND": "postgres"},
			wantErr: "CHECKPOINT_DATABASE_URL",
		},
		{
			name:    "overlap not below chunk size",
			env:     map[string]string{"PIPELINE_REFINE_CHUNK_SIZE": "100", "PIPELINE_REFINE_CHUNK_OVERLAP": "100"},
			wantErr: "PIPELINE_REFINE_CHUNK_OVERLAP",
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"STORAGE_TYPE": "s3"},
			wantErr: "STORAGE_S3_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Parse("test")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestParseRequiresModelEndpoint(t *testing.T) {
	t.Setenv("EMBEDDING_SERVICE_URL", "http://emb.local")
	t.Setenv("EMBEDDING_MODEL", "embed")
	t.Setenv("LLM_SERVICE_URL", "")
	t.Setenv("LLM_MODEL", "")

	if _, err := Parse("test"); err == nil {
		t.Fatal("expected error when LLM_SERVICE_URL is missing")
	}
}
