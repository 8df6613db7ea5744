package callback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/integration/common"
	"github.com/futig/mcq-reasoner/internal/metrics"
	pkghttp "github.com/futig/mcq-reasoner/pkg/http"
)

// Connector posts run lifecycle events to a webhook. Delivery failures are
// logged and never fail the run.
type Connector struct {
	url       string
	connector *pkghttp.Connector
	now       func() time.Time
}

func NewConnector(cfg config.CallbackConfig, m *metrics.Metrics, logger *zap.Logger) *Connector {
	httpCfg := config.HTTPClientConfig{
		RequestTimeout:        cfg.Timeout,
		ConnTimeout:           cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		Token:                 cfg.Token,
		Url:                   cfg.URL,
	}
	return &Connector{
		url:       cfg.URL,
		connector: common.NewBaseConnector("callback", httpCfg, m, logger),
		now:       time.Now,
	}
}

// RunFinished reports a completed or interrupted run
func (c *Connector) RunFinished(ctx context.Context, summary *entity.RunSummary) {
	event := entity.CallbackEventRunCompleted
	if summary.Interrupted {
		event = entity.CallbackEventRunInterrupted
	}
	err := c.Send(ctx, summary.Key.String(), &entity.CallbackEvent{
		Event: event,
		Data:  entity.NewCallbackRunData(summary),
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to send run callback", zap.Error(err))
	}
}

// RunFailed reports a run that stopped with an error
func (c *Connector) RunFailed(ctx context.Context, key entity.RunKey, runErr error) {
	err := c.Send(ctx, key.String(), &entity.CallbackEvent{
		Event: entity.CallbackEventRunFailed,
		Data: &entity.CallbackErrorData{
			RunKey: key.String(),
			Error:  runErr.Error(),
		},
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to send run failure callback", zap.Error(err))
	}
}

func (c *Connector) Send(ctx context.Context, runKey string, event *entity.CallbackEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	ctxzap.Debug(ctx, "sending callback event",
		zap.String("event_type", string(event.Event)),
		zap.String("run_key", runKey),
	)

	err := c.connector.DoRequest(ctx, http.MethodPost, "", event, nil,
		pkghttp.WithHeader("X-Run-Key", runKey),
		pkghttp.WithURL(c.url),
	)
	if err != nil {
		return fmt.Errorf("failed to send callback, event_type: %s, url: %s, error: %w", event.Event, c.url, err)
	}

	ctxzap.Info(ctx, "callback sent", zap.String("event_type", string(event.Event)), zap.String("run_key", runKey))
	return nil
}
