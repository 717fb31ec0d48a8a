// Package ratelimit bounds the total remote API call volume across all
// account schedules to a configured spend budget.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBurst allows a few schedules to fire back to back after an idle
// stretch without letting a restart blow through the budget.
const DefaultBurst = 5

// Governor is a process-wide token bucket shared by every account schedule.
// Schedules wait for a grant instead of skipping ticks, so a tight budget
// stretches the effective poll interval rather than dropping polls.
type Governor struct {
	limiter *rate.Limiter
}

// New creates a governor allowing calls remote calls per window.
func New(calls int, window time.Duration, burst int) *Governor {
	if burst <= 0 {
		burst = DefaultBurst
	}
	if calls <= 0 || window <= 0 {
		return &Governor{limiter: rate.NewLimiter(rate.Inf, burst)}
	}

	perSecond := float64(calls) / window.Seconds()
	return &Governor{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// NewFromBudget derives the call budget from a monthly spend cap and a
// cost per remote call, spread evenly over a 30-day window. A zero cap or
// cost disables limiting.
func NewFromBudget(monthlyCap, costPerCall float64, burst int) *Governor {
	if monthlyCap <= 0 || costPerCall <= 0 {
		return New(0, 0, burst)
	}

	calls := int(monthlyCap / costPerCall)
	return New(calls, 30*24*time.Hour, burst)
}

// Acquire blocks until one call slot is granted or ctx is done.
func (g *Governor) Acquire(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// AcquireN blocks until n call slots are granted or ctx is done. Schedules
// use this when one poll cycle costs more than one remote call.
func (g *Governor) AcquireN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return g.limiter.WaitN(ctx, n)
}
