package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// StaticHolidays is a fixed holiday list. Entries under the empty key apply
// to every employee.
type StaticHolidays map[string][]time.Time

func (s StaticHolidays) HolidaysFor(_ context.Context, employeeID string, _, _ time.Time) ([]time.Time, error) {
	out := append([]time.Time(nil), s[""]...)
	if employeeID != "" {
		out = append(out, s[employeeID]...)
	}
	return out, nil
}

// GuardedSource bounds every lookup with a timeout and stops calling a source
// that keeps failing until the breaker half-opens again.
type GuardedSource struct {
	next    HolidaySource
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

func NewGuardedSource(next HolidaySource, timeout time.Duration, log zerolog.Logger) *GuardedSource {
	log = log.With().Str("component", "holidays").Logger()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "holiday-source",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &GuardedSource{next: next, timeout: timeout, cb: cb}
}

type holidayResult struct {
	days []time.Time
	err  error
}

func (g *GuardedSource) HolidaysFor(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		ch := make(chan holidayResult, 1)
		go func() {
			days, err := g.next.HolidaysFor(cctx, employeeID, start, end)
			ch <- holidayResult{days: days, err: err}
		}()

		select {
		case r := <-ch:
			return r.days, r.err
		case <-cctx.Done():
			return nil, cctx.Err()
		}
	})
	if err != nil {
		return nil, err
	}
	days, _ := res.([]time.Time)
	return days, nil
}

// State exposes the breaker state for health reporting.
func (g *GuardedSource) State() gobreaker.State {
	return g.cb.State()
}

// IsUnavailable reports whether err came from the breaker rejecting a call.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

var _ HolidaySource = StaticHolidays(nil)
var _ HolidaySource = (*GuardedSource)(nil)
