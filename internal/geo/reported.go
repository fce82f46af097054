package geo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

// DefaultReportMaxAge is how long an unclaimed report stays usable.
const DefaultReportMaxAge = 30 * time.Second

type report struct {
	position weather.Coordinates
	err      error
	at       time.Time
}

// ReportedSource is fed by the client device: CurrentPosition waits until the
// device reports a position (or an error) through Report, or until ctx ends.
// A report that arrives with nobody waiting is kept for the next call as long
// as it is younger than the max age.
type ReportedSource struct {
	clock  clock.Clock
	maxAge time.Duration

	mu      sync.Mutex
	waiters []chan report
	pending *report
}

func NewReportedSource() *ReportedSource {
	return &ReportedSource{clock: clock.New(), maxAge: DefaultReportMaxAge}
}

// WithMaxAge sets how long an unclaimed report is kept. d <= 0 keeps the default.
func (s *ReportedSource) WithMaxAge(d time.Duration) *ReportedSource {
	if d > 0 {
		s.maxAge = d
	}
	return s
}

// WithClock replaces the wall clock (tests).
func (s *ReportedSource) WithClock(clk clock.Clock) *ReportedSource {
	s.clock = clk
	return s
}

func (s *ReportedSource) CurrentPosition(ctx context.Context) (weather.Coordinates, error) {
	s.mu.Lock()
	if r, ok := s.takePendingLocked(); ok {
		s.mu.Unlock()
		return r.position, r.err
	}
	ch := make(chan report, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case r := <-ch:
		return r.position, r.err
	case <-ctx.Done():
		s.abandon(ch)
		if errors.Is(ctx.Err(), context.Canceled) {
			return weather.Coordinates{}, ctx.Err()
		}
		return weather.Coordinates{}, ErrTimeout
	}
}

// Report delivers a position to every pending CurrentPosition call.
func (s *ReportedSource) Report(position weather.Coordinates) {
	s.deliver(report{position: position, at: s.clock.Now()})
}

// Fail delivers an error (ErrDenied, ErrUnsupported, ...) to every pending call.
func (s *ReportedSource) Fail(err error) {
	s.deliver(report{err: err, at: s.clock.Now()})
}

// Waiting reports how many calls are blocked on a report.
func (s *ReportedSource) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

func (s *ReportedSource) deliver(r report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverLocked(r)
}

func (s *ReportedSource) deliverLocked(r report) {
	if len(s.waiters) == 0 {
		s.pending = &r
		return
	}
	for _, ch := range s.waiters {
		ch <- r
	}
	s.waiters = nil
}

func (s *ReportedSource) takePendingLocked() (report, bool) {
	if s.pending == nil {
		return report{}, false
	}
	r := *s.pending
	s.pending = nil
	if s.clock.Since(r.at) > s.maxAge {
		return report{}, false
	}
	return r, true
}

// abandon unregisters a waiter whose context ended. A report that was sent to
// it in the meantime is handed on instead of being lost.
func (s *ReportedSource) abandon(ch chan report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
	select {
	case r := <-ch:
		if s.pending == nil || !s.pending.at.After(r.at) {
			s.deliverLocked(r)
		}
	default:
	}
}

// ParseError maps a device-reported error name to a sentinel error.
func ParseError(name string) error {
	switch name {
	case "denied", "permission_denied":
		return ErrDenied
	case "timeout":
		return ErrTimeout
	default:
		return ErrUnsupported
	}
}
