package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/integration/common"
	"github.com/futig/mcq-reasoner/internal/metrics"
	pkghttp "github.com/futig/mcq-reasoner/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var errTransient = errors.New("transient embedding failure")

type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	headers   []pkghttp.RequestOpt
	timer     retry.Timer
	logger    *zap.Logger
}

type Option func(*Connector)

func WithTimer(t retry.Timer) Option {
	return func(c *Connector) {
		c.timer = t
	}
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *Connector {
	c := &Connector{
		connector: common.NewBaseConnector("embedding", cfg.HTTPClientConfig, m, logger),
		headers:   common.HeaderOpts(cfg.ExtraHeaders),
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the embedding of a single text
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &entity.EmbeddingRequest{
		Model:          c.config.Model,
		Input:          text,
		EncodingFormat: "float",
	}

	var vector []float32
	attempt := func() error {
		var resp entity.EmbeddingResponse
		err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp, c.headers...)
		if err != nil {
			if code, ok := pkghttp.StatusCode(err); ok && !retryableStatuses[code] {
				return err
			}
			return fmt.Errorf("%w: %w", errTransient, err)
		}
		if resp.Error != nil {
			return fmt.Errorf("%w: service reported error: %v", errTransient, resp.Error)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("%w: response carries no embedding", errTransient)
		}
		vector = resp.Data[0].Embedding
		return nil
	}

	opts := append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && errors.Is(err, errTransient)
		}),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Debug(ctx, "embedding call failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	if err := retry.Do(attempt, opts...); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmbeddingFailed, err)
	}
	return vector, nil
}
