// Package httpx provides an HTTP client helper that retries transient upstream failures.
package httpx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// RetryPolicy bounds how often and how long DoWithRetry waits between attempts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy retries three times with 250ms..2s exponential backoff.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// NewClient returns an http.Client with the given overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// StatusError is returned when the upstream answered with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// DoWithRetry sends the request built by makeReq and retries on 429 and 5xx
// responses. The returned response always has a 2xx status; the caller closes
// its body. makeReq is invoked once per attempt so request bodies can be rebuilt.
func DoWithRetry(ctx context.Context, client *http.Client, policy RetryPolicy, makeReq func() (*http.Request, error)) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		lastErr = &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}

		if !IsRetryableStatus(resp.StatusCode) || attempt == policy.MaxRetries {
			return nil, lastErr
		}

		slog.Debug("retrying upstream request",
			"url", req.URL.Host+req.URL.Path,
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
		if err := sleepWithBackoff(ctx, policy, attempt); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleepWithBackoff(ctx context.Context, policy RetryPolicy, attempt int) error {
	delay := policy.BaseDelay * time.Duration(1<<attempt)
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	if delay > 0 {
		delay += time.Duration(rand.Int64N(int64(delay/2) + 1))
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
