// Package poller waits for an assistant run to leave its pending states.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/models"
)

// PollFunc fetches the current state of a run once
type PollFunc func(ctx context.Context, run *models.Run) (*models.Run, error)

// Poller re-checks a run at a fixed interval until it reaches a terminal status.
// There is no backoff; the wait is bounded by Timeout and the caller's context.
type Poller struct {
	interval time.Duration
	timeout  time.Duration

	// after is swapped in tests to count waits without sleeping
	after func(d time.Duration) <-chan time.Time
}

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the fixed wait between checks
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds a whole Wait call; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithClock replaces time.After, mainly for tests
func WithClock(after func(d time.Duration) <-chan time.Time) Option {
	return func(p *Poller) {
		if after != nil {
			p.after = after
		}
	}
}

// New creates a Poller with the default interval and timeout
func New(opts ...Option) *Poller {
	p := &Poller{
		interval: models.DefaultPollInterval,
		timeout:  models.DefaultPollTimeout,
		after:    time.After,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the wait between checks
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Timeout returns the bound on a Wait call
func (p *Poller) Timeout() time.Duration {
	return p.timeout
}

// Wait returns the first observed terminal state of run. It sleeps once for
// every pending status it observes, including the one run already carries.
// A poll error aborts the wait and is returned as is. When the timeout
// elapses a TimeoutError is returned together with the last observed run;
// when ctx is cancelled ctx.Err() is returned.
func (p *Poller) Wait(ctx context.Context, run *models.Run, poll PollFunc) (*models.Run, error) {
	if run == nil {
		return nil, fmt.Errorf("no run to wait for")
	}

	var deadline <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	current := run
	for !current.Status.IsTerminal() {
		slog.DebugContext(ctx, "run pending", "status", current.Status)

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-deadline:
			return current, apierrors.NewTimeoutError(
				fmt.Sprintf("run %s still %s after %s", current.ID, current.Status, p.timeout))
		case <-p.after(p.interval):
		}

		next, err := poll(ctx, current)
		if err != nil {
			return current, err
		}
		if next == nil {
			return current, fmt.Errorf("poll returned no run for %s", current.ID)
		}
		current = next
	}

	slog.DebugContext(ctx, "run finished", "status", current.Status)
	return current, nil
}
