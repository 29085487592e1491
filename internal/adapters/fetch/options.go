package fetch

import (
	"net/http"
	"time"

	"github.com/okian/siegeboard/pkg/logger"
	"golang.org/x/time/rate"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client. Its Timeout is left alone.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithRetryInterval sets the first backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.retryInterval = d
		}
	}
}

// WithConcurrency caps in-flight requests. 0 means no cap.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.concurrency = n
		}
	}
}

// WithRatePerSecond spaces request starts. 0 disables the limiter.
func WithRatePerSecond(r float64) Option {
	return func(f *Fetcher) {
		if r > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(r), 1)
		} else {
			f.limiter = nil
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}
