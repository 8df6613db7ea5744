package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/integration/common"
	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/futig/mcq-reasoner/internal/pkg/mathexpr"
	pkghttp "github.com/futig/mcq-reasoner/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// retryableStatuses are HTTP statuses treated as transient. 401 is included
// because the gateway returns it spuriously under load.
var retryableStatuses = map[int]bool{
	http.StatusUnauthorized:        true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	headers   []pkghttp.RequestOpt
	metrics   *metrics.Metrics
	timer     retry.Timer
	logger    *zap.Logger
}

type Option func(*Connector)

// WithTimer replaces the backoff clock, letting tests observe waits without sleeping
func WithTimer(t retry.Timer) Option {
	return func(c *Connector) {
		c.timer = t
	}
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *Connector {
	c := &Connector{
		connector: common.NewBaseConnector("llm", cfg.HTTPClientConfig, m, logger),
		headers:   common.HeaderOpts(cfg.ExtraHeaders),
		config:    cfg,
		metrics:   m,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name
func (c *Connector) Model() string {
	return c.config.Model
}

// Invoke sends prompt as a single user turn and returns the completion text
// with {{ expr }} calculator markers evaluated.
//
// Transient failures are retried with exponential backoff until success, the
// configured attempt ceiling, or ctx cancellation. Fatal statuses return a
// *entity.ModelError immediately. A valid response without content returns
// ("", nil): the model declined to answer.
func (c *Connector) Invoke(ctx context.Context, prompt string, stop ...string) (string, error) {
	req := &entity.ChatCompletionRequest{
		Model:               c.config.Model,
		Messages:            []entity.ChatMessage{{Role: "user", Content: prompt}},
		Temperature:         c.config.Temperature,
		MaxCompletionTokens: c.config.MaxTokens,
		Seed:                c.config.Seed,
		Stop:                stop,
	}

	var content string
	attempt := func() error {
		var resp entity.ChatCompletionResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ChatEndpoint, req, &resp, c.headers...); err != nil {
			return classify(err)
		}
		if resp.Error != nil {
			return &entity.ModelError{
				Class:      entity.ErrorClassTransient,
				StatusCode: http.StatusOK,
				Err:        fmt.Errorf("service reported error: %v", resp.Error),
			}
		}
		content = ""
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
		}
		return nil
	}

	opts := append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && errors.Is(err, entity.ErrModelTransient)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.metrics.ModelRetry(retryReason(err))
			ctxzap.Warn(ctx, "model call failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	if err := retry.Do(attempt, opts...); err != nil {
		switch {
		case ctx.Err() != nil:
			c.metrics.ModelCall("canceled")
			return "", fmt.Errorf("invoke model: %w", ctx.Err())
		case errors.Is(err, entity.ErrModelFatal):
			c.metrics.ModelCall("fatal")
			ctxzap.Error(ctx, "model call failed", zap.Error(err))
		default:
			c.metrics.ModelCall("exhausted")
			ctxzap.Error(ctx, "model call gave up after retries", zap.Error(err))
		}
		return "", err
	}

	if strings.TrimSpace(content) == "" {
		c.metrics.ModelCall("empty")
		ctxzap.Warn(ctx, "model returned empty content")
		return "", nil
	}

	c.metrics.ModelCall("ok")
	return mathexpr.ProcessMarkdown(content), nil
}

func classify(err error) error {
	if code, ok := pkghttp.StatusCode(err); ok {
		class := entity.ErrorClassFatal
		if retryableStatuses[code] {
			class = entity.ErrorClassTransient
		}
		return &entity.ModelError{Class: class, StatusCode: code, Err: err}
	}
	// network failures and undecodable bodies are worth another try
	return &entity.ModelError{Class: entity.ErrorClassTransient, Err: err}
}

func retryReason(err error) string {
	var me *entity.ModelError
	if errors.As(err, &me) {
		switch {
		case me.StatusCode == http.StatusOK:
			return "soft_error"
		case me.StatusCode != 0:
			return fmt.Sprintf("http_%d", me.StatusCode)
		}
	}
	return "network"
}
