// Package gate serializes outbound model calls with a minimum gap between them.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinGap is the minimum time between two released calls.
const DefaultMinGap = 3500 * time.Millisecond

// ErrInvalidGap is returned for a negative minimum gap.
var ErrInvalidGap = errors.New("minimum gap must not be negative")

// Gate releases callers one at a time, each at least minGap after the
// previous release. The last release time is shared by every caller of the
// same Gate, whatever session or document they work on.
//
// Waiters acquire the gate in arrival order as far as the runtime allows and
// can abandon the wait through their context. An abandoned wait does not
// count as a release.
type Gate struct {
	minGap time.Duration
	sem    chan struct{}
	last   time.Time
	logger *slog.Logger
	logs   *rate.Sometimes
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// New creates a Gate with the given minimum gap.
func New(minGap time.Duration, opts ...Option) (*Gate, error) {
	if minGap < 0 {
		return nil, ErrInvalidGap
	}
	g := &Gate{
		minGap: minGap,
		sem:    make(chan struct{}, 1),
		logger: slog.Default().With("component", "gate"),
		logs:   &rate.Sometimes{Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// MinGap returns the configured gap.
func (g *Gate) MinGap() time.Duration {
	return g.minGap
}

// Wait suspends the caller until at least MinGap has elapsed since the
// previous release, then records the current time as the new release and
// returns it.
func (g *Gate) Wait(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	}
	defer func() { <-g.sem }()

	if !g.last.IsZero() {
		if wait := g.minGap - time.Since(g.last); wait > 0 {
			g.logs.Do(func() {
				g.logger.Debug("delaying outbound call", "wait", wait)
			})
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return time.Time{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	g.last = time.Now()
	return g.last, nil
}

// Throttle is Wait without cancellation.
func (g *Gate) Throttle() time.Time {
	released, _ := g.Wait(context.Background())
	return released
}
