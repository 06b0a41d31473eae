package api

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("client-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("client-1") {
		t.Error("fourth request should be rejected")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("client-1") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("client-2") {
		t.Error("second client should have its own budget")
	}
	if rl.Allow("client-1") {
		t.Error("first client should be over its budget")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("client-1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("client-1") {
		t.Fatal("second request should be rejected inside the window")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("client-1") {
		t.Error("request should be allowed after the window expires")
	}
}
