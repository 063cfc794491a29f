// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides retry and pacing helpers shared by the remote stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests). The wait is the server's Retry-After value when it sends one,
// otherwise RetryBaseDelay doubled on every attempt.
//
// When maxRetries is 0 the default (5) is used. After exhausting retries the
// last 429 response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = RetryBaseDelay << attempt
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Sleep waits for d or until ctx is done. Tests replace it to skip real waits.
var Sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy is a fixed-delay retry policy.
type Policy struct {
	// MaxAttempts is the total number of calls allowed, first one included.
	MaxAttempts int

	// Delay is the wait after a failed attempt.
	Delay time.Duration

	// Pause is the wait after a successful attempt.
	Pause time.Duration

	// OnRetry, when set, observes each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Retry calls fn until it succeeds or MaxAttempts calls have failed. A
// failure waits Delay before the next call; success waits Pause before
// returning. A context cancelled during that pause returns the value
// together with the context error. When attempts run out the last error is
// returned.
func Retry[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			if err := Sleep(ctx, p.Pause); err != nil {
				return v, err
			}
			return v, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := Sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
