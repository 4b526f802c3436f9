// Package breaker wraps sony/gobreaker with the call semantics the order
// service needs: a per-call timeout whose late completion is discarded, a
// failure-ratio trip condition with a call-volume floor, and a single probe
// call while half-open.
package breaker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"orderflow/pkg/metrics"
)

var (
	// ErrOpen is returned without invoking the wrapped call while the
	// breaker is open (or while the half-open probe slot is taken).
	ErrOpen = errors.New("circuit breaker is open")

	// ErrTimeout is returned when the wrapped call exceeds the configured
	// timeout. It counts as one failure against the breaker window.
	ErrTimeout = errors.New("call timed out")
)

// Config controls a Breaker.
type Config struct {
	Name             string
	CallTimeout      time.Duration
	FailureThreshold float64 // failure ratio in [0,1] that opens the breaker
	MinRequests      uint32  // minimum calls in the window before the ratio applies
	Cooldown         time.Duration

	// IsSuccessful optionally classifies errors that should not count as
	// breaker failures (e.g. a definitive not-found answer from a healthy
	// upstream). nil means every error is a failure.
	IsSuccessful func(err error) bool

	// OnStateChange optionally replaces the default transition hook
	// (log line + transition counter). Used by tests.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Breaker guards calls against an unhealthy downstream dependency.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// New builds a Breaker from cfg.
func New(cfg Config) *Breaker {
	onStateChange := cfg.OnStateChange
	if onStateChange == nil {
		onStateChange = func(name string, from, to gobreaker.State) {
			log.Printf("[Breaker] %s: %s -> %s", name, from, to)
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		}
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1, // exactly one probe while half-open
		Interval:    time.Minute,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && ratio >= cfg.FailureThreshold
		},
		IsSuccessful:  cfg.IsSuccessful,
		OnStateChange: onStateChange,
	}

	return &Breaker{
		cb:      gobreaker.NewCircuitBreaker(settings),
		timeout: cfg.CallTimeout,
	}
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Do runs fn under the breaker with the configured per-call timeout. While
// the breaker is open, fn is not invoked and ErrOpen is returned. A call
// that outlives its deadline returns ErrTimeout and is recorded as exactly
// one failure; if the call eventually completes, its result is dropped.
func Do[T any](b *Breaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	res, err := b.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		type outcome struct {
			val T
			err error
		}
		// Buffered so a late completion never blocks the abandoned goroutine.
		done := make(chan outcome, 1)
		go func() {
			val, err := fn(callCtx)
			done <- outcome{val: val, err: err}
		}()

		select {
		case o := <-done:
			return o.val, o.err
		case <-callCtx.Done():
			return nil, ErrTimeout
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return zero, ErrOpen
		case errors.Is(err, context.DeadlineExceeded):
			// fn honored the call context and reported the deadline itself.
			return zero, ErrTimeout
		}
		return zero, err
	}

	return res.(T), nil
}
