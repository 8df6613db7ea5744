package http

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type rateTransport struct {
	limiter   *rate.Limiter
	transport http.RoundTripper
}

func (t *rateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// WithRateLimit spaces outbound requests at least interval apart.
// A zero interval disables pacing.
func WithRateLimit(interval time.Duration) HttpOpts {
	if interval <= 0 {
		return func(*httpConfig) {}
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &rateTransport{
			limiter:   limiter,
			transport: rt,
		}
	})
}
