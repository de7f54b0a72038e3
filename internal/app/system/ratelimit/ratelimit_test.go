package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/councilhub/internal/app/system/clock"
)

func TestLimiter_WindowResets(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	l := NewWithClock(2, time.Minute, clk)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two hits should pass")
	}
	if l.Allow("a") {
		t.Fatal("third hit should be limited")
	}
	if l.Remaining("a") != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining("a"))
	}
	if !l.Allow("b") {
		t.Error("keys are independent")
	}

	clk.Advance(time.Minute)
	if !l.Allow("a") {
		t.Error("hit after the window should pass")
	}
	if l.Remaining("a") != 1 {
		t.Errorf("Remaining = %d, want 1", l.Remaining("a"))
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	l := NewWithClock(1, time.Second, clk)

	l.Allow("x")
	l.Reset("x")
	if !l.Allow("x") {
		t.Error("Reset should clear the counter")
	}

	clk.Advance(2 * time.Second)
	for i := 0; i < sweepEvery; i++ {
		l.Allow("fresh")
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want expired keys swept", l.Len())
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.9:5123"
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q", got)
	}
	r.RemoteAddr = "203.0.113.9"
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP without port = %q", got)
	}
}

func TestLoginLimiter_PerAccount(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Pat@Example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, msg := ll.Check(r, "pat@example.com "); ok || msg == "" {
		t.Fatal("account limit should apply across case and spacing")
	}

	ll.ResetEmail("PAT@example.com")
	if ok, _ := ll.Check(r, "pat@example.com"); !ok {
		t.Error("ResetEmail should clear the account counter")
	}
}
