package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WithMetrics instruments outbound requests. Both collectors must be
// partitioned by the "code" and "method" labels only, with the service label
// already curried in.
func WithMetrics(requests *prometheus.CounterVec, latency prometheus.ObserverVec) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return promhttp.InstrumentRoundTripperCounter(requests,
			promhttp.InstrumentRoundTripperDuration(latency, rt),
		)
	})
}
