// Package dispatch bounds how many outbound provider calls run concurrently
// and retries transient rate-limit failures with exponential backoff. It has
// no knowledge of what the calls do.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// DefaultRetryDelays is the backoff schedule applied to rate-limited
// failures: four retries beyond the initial attempt.
var DefaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
}

// Dispatcher admits at most N concurrent executions process-wide. It is
// constructed once at the composition root and shared by reference; there is
// no package-level instance.
type Dispatcher struct {
	sem       *semaphore.Weighted
	limit     int64
	delays    []time.Duration
	retryable func(error) bool
	active    atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRetryDelays overrides the backoff schedule. Mostly for tests.
func WithRetryDelays(delays []time.Duration) Option {
	return func(d *Dispatcher) { d.delays = delays }
}

// WithRetryClassifier overrides the predicate deciding which failures are
// retried.
func WithRetryClassifier(fn func(error) bool) Option {
	return func(d *Dispatcher) { d.retryable = fn }
}

func New(limit int, opts ...Option) *Dispatcher {
	if limit <= 0 {
		limit = 1
	}
	d := &Dispatcher{
		sem:       semaphore.NewWeighted(int64(limit)),
		limit:     int64(limit),
		delays:    DefaultRetryDelays,
		retryable: IsRateLimited,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Active reports how many tasks currently hold an admission slot.
func (d *Dispatcher) Active() int64 { return d.active.Load() }

// Limit reports the configured admission bound.
func (d *Dispatcher) Limit() int64 { return d.limit }

// Execute runs fn under the dispatcher's admission limit, suspending until a
// slot is free. Rate-limited failures are retried on the backoff schedule;
// the slot is released before each sleep and re-acquired on resubmit, so
// backing-off tasks do not starve other callers. Any other failure, and the
// last failure once the schedule is exhausted, is returned verbatim.
//
// Execute is a free function because methods cannot be generic.
func Execute[T any](ctx context.Context, d *Dispatcher, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
		d.active.Add(1)
		log.Debug().
			Str("component", "dispatch").
			Int64("active", d.active.Load()).
			Int64("limit", d.limit).
			Msg("provider call admitted")
		result, err := fn()
		d.active.Add(-1)
		d.sem.Release(1)
		if err == nil {
			return result, nil
		}
		if !d.retryable(err) || attempt >= len(d.delays) {
			if attempt > 0 {
				log.Warn().
					Str("component", "dispatch").
					Int("attempts", attempt+1).
					Err(err).
					Msg("provider call failed after retries")
			}
			return zero, err
		}
		delay := d.delays[attempt]
		log.Info().
			Str("component", "dispatch").
			Dur("delay", delay).
			Int("attempt", attempt+1).
			Int("schedule", len(d.delays)).
			Msg("rate limit hit, backing off")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}

type statusCoder interface {
	StatusCode() int
}

// IsRateLimited reports whether err looks like a provider "too many
// requests" signal. The classification deliberately accepts a union of
// signals (a status-carrying error anywhere in the chain, "429" or "rate
// limit" in the message text) rather than a single canonical one; narrowing
// it could silently stop retries that callers rely on.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if sc, ok := e.(statusCoder); ok && sc.StatusCode() == http.StatusTooManyRequests {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
