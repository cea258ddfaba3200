package server

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiterRegistry_EvictsIdle(t *testing.T) {
	r := newLimiterRegistry(1, 1)
	start := time.Now()

	for i := range 1000 {
		r.allow(fmt.Sprintf("token:forged-%d", i), start)
	}
	if got := r.size(); got != 1000 {
		t.Fatalf("expected 1000 limiters, got %d", got)
	}

	r.allow("token:real", start.Add(r.ttl))
	if got := r.size(); got != 1 {
		t.Errorf("expected idle limiters to be evicted, %d left", got)
	}
}

func TestLimiterRegistry_KeepsRecentlyUsed(t *testing.T) {
	r := newLimiterRegistry(rate.Every(time.Hour), 1)
	start := time.Now()

	if _, ok := r.allow("token:a", start); !ok {
		t.Fatal("first request from a should pass")
	}
	if _, ok := r.allow("token:b", start); !ok {
		t.Fatal("first request from b should pass")
	}

	// a stays active, b goes idle.
	if _, ok := r.allow("token:a", start.Add(r.ttl/2)); ok {
		t.Error("a should still be limited")
	}
	r.allow("token:c", start.Add(r.ttl))

	if _, ok := r.items["token:b"]; ok {
		t.Error("expected idle limiter of b to be evicted")
	}
	if _, ok := r.items["token:a"]; !ok {
		t.Error("expected limiter of a to be kept")
	}
}

func TestLimiterRegistry_Capacity(t *testing.T) {
	r := newLimiterRegistry(rate.Every(time.Hour), 1)
	r.capacity = 10
	now := time.Now()

	for i := range 100 {
		r.allow(fmt.Sprintf("addr:10.0.0.%d", i), now)
	}
	if got := r.size(); got != 10 {
		t.Fatalf("expected at most 10 limiters, got %d", got)
	}

	// The most recent clients keep their spent buckets.
	if _, ok := r.allow("addr:10.0.0.99", now); ok {
		t.Error("expected most recent client to stay limited")
	}
	if _, ok := r.items["addr:10.0.0.0"]; ok {
		t.Error("expected least recently used client to be evicted")
	}
}

func TestLimiterRegistry_TTLCoversRefill(t *testing.T) {
	r := newLimiterRegistry(rate.Every(time.Hour), 5)
	if r.ttl < 5*time.Hour {
		t.Errorf("ttl %s is shorter than the refill time", r.ttl)
	}

	r = newLimiterRegistry(rate.Inf, 1)
	if r.ttl != defaultLimiterTTL {
		t.Errorf("expected default ttl, got %s", r.ttl)
	}
}
