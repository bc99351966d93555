// Package retry runs an operation a bounded number of times with a fixed pause
// between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how often and how far apart an operation is attempted.
type Policy struct {
	Attempts int
	Interval time.Duration

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default is five attempts one second apart.
var Default = Policy{Attempts: 5, Interval: time.Second}

// WithSleep returns a copy of p that waits using fn instead of a timer.
func (p Policy) WithSleep(fn func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = fn
	return p
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do calls op until it succeeds or the policy is exhausted. Every failure is
// passed to onFailure (which may be nil), then Do waits Interval unless that
// was the final attempt. If ctx ends during a wait, Do returns the
// context error wrapped together with the last failure.
func Do[T any](ctx context.Context, p Policy, onFailure func(attempt int, err error), op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		last = err

		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return zero, fmt.Errorf("retry interrupted after attempt %d: %w (last error: %v)", attempt, err, last)
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
