package common

import (
	"github.com/futig/mcq-reasoner/internal/config"
	"github.com/futig/mcq-reasoner/internal/metrics"
	pkgHTTP "github.com/futig/mcq-reasoner/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds the shared HTTP connector for one outbound service.
// Decorators run outermost first: pacing, metrics, logging, auth.
func NewBaseConnector(service string, cfg config.HTTPClientConfig, m *metrics.Metrics, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger.With(zap.String("service", service)),
		BaseURL: cfg.Url,
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithCredentials(pkgHTTP.Credentials{
			Token:    cfg.Token,
			TokenID:  cfg.TokenID,
			TokenKey: cfg.TokenKey,
		}),
	}
	if cfg.LogPayloads {
		opts = append(opts, pkgHTTP.WithPayloadLogging())
	} else {
		opts = append(opts, pkgHTTP.WithRequestLogging())
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		opts = append(opts, pkgHTTP.WithMaxIdleConnsPerHost(cfg.MaxIdleConnsPerHost))
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, pkgHTTP.WithInsecureSkipVerify(true))
	}
	if requests, latency, ok := m.Outbound(service); ok {
		opts = append(opts, pkgHTTP.WithMetrics(requests, latency))
	}
	opts = append(opts, pkgHTTP.WithRateLimit(cfg.RateLimit))

	return pkgHTTP.NewConnector(connCfg, opts...)
}

// HeaderOpts turns static extra headers into per-request options
func HeaderOpts(headers map[string]string) []pkgHTTP.RequestOpt {
	opts := make([]pkgHTTP.RequestOpt, 0, len(headers))
	for k, v := range headers {
		opts = append(opts, pkgHTTP.WithHeader(k, v))
	}
	return opts
}
