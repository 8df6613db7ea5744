package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultDelay    = 5 * time.Second
	defaultMaxDelay = 120 * time.Second
)

// RetryConfig is the env-tagged backoff policy shared by outbound connectors.
// Attempts == 0 retries until success or context cancellation. Fields have no
// env defaults: callers seed per-service defaults before parsing.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS"`
	Delay    time.Duration `env:"DELAY"`
	MaxDelay time.Duration `env:"MAX_DELAY"`
}

// ToRetryOptions returns exponential backoff options surfacing only the last
// error: Delay, 2*Delay, 4*Delay, ... capped at MaxDelay. The wait is derived
// from the attempt number alone, so the options can be shared between calls.
func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(rc.delayFor),
		retry.LastErrorOnly(true),
	}
}

// delayFor is called with n = 1 before the first wait
func (rc *RetryConfig) delayFor(n uint, _ error, _ *retry.Config) time.Duration {
	if n == 0 {
		n = 1
	}
	return Backoff(rc.Delay, rc.MaxDelay, int(n-1))
}

// Backoff returns base*2^n capped at max (max <= 0 means uncapped).
func Backoff(base, max time.Duration, n int) time.Duration {
	d := base
	for i := 0; i < n; i++ {
		if max > 0 && d >= max {
			break
		}
		d *= 2
		if d <= 0 { // overflow
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: 0,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
