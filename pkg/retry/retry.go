// Package retry wraps fallible network operations with bounded
// exponential-backoff retry.
package retry

import (
	"context"
	"time"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
)

// Policy bounds the retry schedule. It is a process-wide constant, not
// per-call state.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultPolicy returns the schedule used for every outbound call:
// 100ms base, doubling per attempt, capped at 5s, at most 3 attempts.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		MaxAttempts: 3,
	}
}

func (p Policy) orDefault() Policy {
	if p.MaxAttempts <= 0 {
		return DefaultPolicy()
	}
	return p
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempt cap is reached. Only errors apierr classifies as transient are
// retried. Whatever the final attempt returned is surfaced unwrapped, so
// callers see the true failure cause rather than a synthetic
// "retries exhausted" error. op must be idempotent or safe to repeat.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	p = p.orDefault()
	var zero T
	delay := p.BaseDelay

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !apierr.IsTransient(err) || attempt >= p.MaxAttempts {
			return zero, err
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, err
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
