package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"aonbas.x341.dev/internal/logging"
)

const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond

	// maxErrorBodyBytes caps how much of a non-2xx body is kept in an UpstreamError.
	maxErrorBodyBytes = 512
)

// Fetcher executes outbound GET requests with a bounded exponential backoff on
// transient transport failures. Non-2xx answers are terminal.
type Fetcher struct {
	client         *http.Client
	logger         *slog.Logger
	maxAttempts    int
	initialBackoff time.Duration

	// onRetry is called before each backoff sleep with the error and the sleep duration.
	onRetry func(err error, wait time.Duration)
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithMaxAttempts sets the total number of attempts, including the first one.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithInitialBackoff sets the first backoff sleep; every later sleep doubles it.
func WithInitialBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.initialBackoff = d
		}
	}
}

// NewFetcher creates a Fetcher. A nil client means http.DefaultClient and a nil
// logger means slog.Default().
func NewFetcher(client *http.Client, logger *slog.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		client:         client,
		logger:         logger.With(slog.String("component", "backoff_fetcher")),
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get issues a GET request for url and returns the response body.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	return f.Execute(req)
}

// Execute runs req, retrying transport failures. The request must not carry a
// body since it may be sent more than once. Errors are *NetworkError when the
// retries are exhausted or the request context is cancelled, and *UpstreamError
// for a non-2xx status.
func (f *Fetcher) Execute(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	url := req.URL.String()

	// query strings may carry credentials
	logURL := *req.URL
	logURL.RawQuery = ""

	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer logging.SafeCloseWithLogging(resp.Body, f.logger, "http_response_body")

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
			return nil, backoff.Permanent(&UpstreamError{
				URL:        url,
				StatusCode: resp.StatusCode,
				Body:       string(snippet),
			})
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("upstream request failed, backing off",
			slog.String("url", logURL.String()),
			slog.Int("attempt", attempts),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
		if f.onRetry != nil {
			f.onRetry(err, wait)
		}
	}

	body, err := backoff.RetryNotifyWithData(operation, f.policy(ctx), notify)
	if err == nil {
		return body, nil
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return nil, upstreamErr
	}
	return nil, &NetworkError{URL: url, Attempts: attempts, Err: err}
}

func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.initialBackoff
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = f.initialBackoff << uint(f.maxAttempts)
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(f.maxAttempts-1)), ctx)
}
