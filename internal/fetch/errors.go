package fetch

import (
	"fmt"
)

// NetworkError is a transport-level failure: the upstream could not be reached
// after all retries, or the caller gave up while waiting to retry.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a non-success HTTP status. It is never retried.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("upstream returned HTTP %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// DecodeError wraps a malformed JSON document or protobuf feed.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
