package http

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type payloadContextKey struct{}

var redactedHeaders = []string{"Authorization", "Token-id", "Token-key"}

type logTransport struct {
	logPayload bool
	transport  http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	headers := req.Header.Clone()
	for _, h := range redactedHeaders {
		if headers.Get(h) != "" {
			headers.Set(h, "***")
		}
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Any("headers", headers),
	}
	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		if t.logPayload {
			fields = append(fields, zap.ByteString("payload", payload))
		} else {
			fields = append(fields, zap.Int("payload_size", len(payload)))
		}
	}

	ctxzap.Debug(ctx, "HTTP outbound request", fields...)

	start := time.Now()
	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "HTTP outbound request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	ctxzap.Debug(ctx, "HTTP outbound response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// WithRequestLogging logs method, URL, redacted headers and payload size of
// every outbound request, plus the response status and latency.
func WithRequestLogging() HttpOpts {
	return withLogging(false)
}

// WithPayloadLogging is WithRequestLogging that also logs request bodies.
// Prompts can be large; enable only for debugging.
func WithPayloadLogging() HttpOpts {
	return withLogging(true)
}

func withLogging(payload bool) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{
			logPayload: payload,
			transport:  rt,
		}
	})
}
