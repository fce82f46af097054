package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type countingRefresher struct {
	calls atomic.Int64
	skip  bool
}

func (c *countingRefresher) Refresh() (uint64, bool) {
	n := c.calls.Add(1)
	return uint64(n), !c.skip
}

func TestScheduler_RefreshesPeriodically(t *testing.T) {
	for _, skip := range []bool{false, true} {
		target := &countingRefresher{skip: skip}
		s := New(target, 20*time.Millisecond, zap.NewNop())
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		deadline := time.Now().Add(2 * time.Second)
		for target.calls.Load() < 2 {
			if time.Now().After(deadline) {
				s.Stop()
				t.Fatalf("refresh ran %d times, want at least 2", target.calls.Load())
			}
			time.Sleep(5 * time.Millisecond)
		}
		s.Stop()
	}
}

func TestScheduler_Disabled(t *testing.T) {
	target := &countingRefresher{}
	s := New(target, 0, zaptest.NewLogger(t))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	if n := target.calls.Load(); n != 0 {
		t.Fatalf("refresh ran %d times while disabled", n)
	}
}
