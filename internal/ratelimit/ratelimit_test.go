package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d should fit the burst", i)
		}
	}
	if l.Allow() {
		t.Error("burst exhausted, expected refusal")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("unlimited limiter refused request %d", i)
		}
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New(0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_Nil(t *testing.T) {
	var l *Limiter
	if !l.Allow() {
		t.Error("nil limiter should allow")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter wait: %v", err)
	}
}
