// Package fetch downloads yearly history pages concurrently.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/siegeboard/pkg/logger"
	"github.com/okian/siegeboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultMaxRetries    = 2
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultUserAgent     = "siegeboard/1.0"
)

// Result is the outcome for one URL. Err is nil only for a 2xx response.
type Result struct {
	URL        string
	Body       []byte
	StatusCode int
	Err        error
}

// OK reports whether the page was fetched.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher issues GET requests with per-request timeout and retry.
type Fetcher struct {
	client        *http.Client
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration
	concurrency   int
	limiter       *rate.Limiter
	userAgent     string
	log           logger.Logger
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:       DefaultTimeout,
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
		userAgent:     DefaultUserAgent,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

// FetchAll fetches every URL and returns one Result per URL in input order.
// A failing URL never affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			results[i] = f.Fetch(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Fetch fetches a single URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	res := Result{URL: url}
	if url == "" {
		res.Err = ErrEmptyURL
		return res
	}

	start := time.Now()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries)), ctx)

	op := func() error {
		code, body, err := f.do(ctx, url)
		res.StatusCode = code
		res.Body = body
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.RecordFetchRetry()
		f.log.Debug(ctx, "retrying fetch", logger.String("url", url), logger.Duration("wait", wait), logger.Error(err))
	}
	res.Err = backoff.RetryNotify(op, policy, notify)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(res.Err, ErrBadStatus):
		outcome = metrics.OutcomeBadStatus
	case res.Err != nil:
		outcome = metrics.OutcomeError
	}
	if res.Err != nil {
		res.Body = nil
		f.log.Warn(ctx, "fetch failed", logger.String("url", url), logger.Int("status", res.StatusCode), logger.Error(res.Err))
	}
	_ = metrics.RecordFetch(outcome, float64(time.Since(start).Milliseconds()))

	return res
}

// do performs one attempt. 4xx and request-building errors are permanent.
func (f *Fetcher) do(ctx context.Context, url string) (int, []byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, nil, backoff.Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, backoff.Permanent(err)
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, body, nil
	case resp.StatusCode >= 500:
		return resp.StatusCode, nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	default:
		return resp.StatusCode, nil, backoff.Permanent(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}
}
