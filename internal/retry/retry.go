// Package retry calls a predicate until it reports success or a fixed
// number of retries is used up.
//
// The contract is deliberately small: one immediate attempt, then up to
// Tries further attempts, each preceded by a blocking sleep of Delay.
// Failures are reported as a false result, never as an error. Only an
// invalid configuration produces an error, and it does so in New before
// the predicate is ever called.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTries is the number of retries after the first attempt.
	DefaultTries = 5

	// DefaultDelay is the pause before each retry.
	DefaultDelay = 3 * time.Second
)

// ErrInvalidArgument is wrapped by New when tries or delay is out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// Retrier holds a validated retry policy. Construct it with New.
type Retrier struct {
	// Tries is the number of retries after the initial attempt (>= 0).
	Tries int

	// Delay is the pause before each retry (> 0).
	Delay time.Duration

	sleep func(time.Duration)
	log   zerolog.Logger
}

// Option customizes a Retrier.
type Option func(*Retrier)

// WithSleep replaces time.Sleep. Tests use it to observe delays without
// actually waiting.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

// WithLogger attaches a logger that records each failed attempt at debug
// level.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Retrier) {
		r.log = log
	}
}

// New validates the policy and returns a Retrier. It fails with an error
// wrapping ErrInvalidArgument if tries is negative or delay is not positive.
func New(tries int, delay time.Duration, opts ...Option) (*Retrier, error) {
	if tries < 0 {
		return nil, fmt.Errorf("%w: tries must be 0 or greater, got %d", ErrInvalidArgument, tries)
	}
	if delay <= 0 {
		return nil, fmt.Errorf("%w: delay must be greater than 0, got %s", ErrInvalidArgument, delay)
	}

	r := &Retrier{
		Tries: tries,
		Delay: delay,
		sleep: time.Sleep,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FloorTries converts a numeric tries value from loosely typed input
// (config files, flags) to an int by flooring it. NaN maps to -1 so that
// New rejects it.
func FloorTries(f float64) int {
	if math.IsNaN(f) {
		return -1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// Do calls fn once, then retries up to r.Tries times while it returns
// false, sleeping r.Delay before each retry. It returns true as soon as fn
// does and false once every attempt has failed.
func (r *Retrier) Do(fn func() bool) bool {
	if fn() {
		return true
	}
	for attempt := 1; attempt <= r.Tries; attempt++ {
		r.log.Debug().Int("attempt", attempt).Int("tries", r.Tries).Dur("delay", r.Delay).Msg("retrying")
		r.pause()
		if fn() {
			return true
		}
	}
	r.log.Debug().Int("attempts", r.Tries+1).Msg("retries exhausted")
	return false
}

// pause sleeps for r.Delay. A Retrier built as a literal has no sleep
// function set and uses time.Sleep.
func (r *Retrier) pause() {
	if r.sleep == nil {
		time.Sleep(r.Delay)
		return
	}
	r.sleep(r.Delay)
}

// Wrap returns fn decorated with the retry policy. Every call of the
// returned function runs a fresh Do.
func (r *Retrier) Wrap(fn func() bool) func() bool {
	return func() bool {
		return r.Do(fn)
	}
}

// DoContext behaves like Do but abandons the wait between attempts when
// ctx is done, returning false and the context's error. A predicate that
// is already running is not interrupted.
func (r *Retrier) DoContext(ctx context.Context, fn func() bool) (bool, error) {
	if fn() {
		return true, nil
	}
	for attempt := 1; attempt <= r.Tries; attempt++ {
		r.log.Debug().Int("attempt", attempt).Int("tries", r.Tries).Dur("delay", r.Delay).Msg("retrying")

		timer := time.NewTimer(r.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}

		if fn() {
			return true, nil
		}
	}
	return false, nil
}
