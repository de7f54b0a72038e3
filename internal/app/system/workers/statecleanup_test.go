package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) CleanupExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestCleanup_RunOnce(t *testing.T) {
	p := &countingPurger{}
	w := NewCleanup("oauth_states", p, zap.NewNop(), time.Hour)
	w.RunOnce()
	if p.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", p.calls.Load())
	}

	p.err = errors.New("boom")
	w.RunOnce()
	if p.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", p.calls.Load())
	}
}

func TestCleanup_TicksUntilStopped(t *testing.T) {
	p := &countingPurger{}
	w := NewCleanup("oauth_states", p, nil, 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if p.calls.Load() < 2 {
		t.Fatalf("calls = %d, want at least 2", p.calls.Load())
	}
	after := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if p.calls.Load() != after {
		t.Error("worker kept running after Stop")
	}
}
