package ws

import (
	"testing"
	"time"
)

func TestEventRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewEventRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("attempt %d unexpectedly blocked", i)
		}
	}
	if rl.Allow("a") {
		t.Fatalf("expected block past the limit")
	}
	// Other connections have their own window.
	if !rl.Allow("b") {
		t.Fatalf("unrelated connection blocked")
	}
}

func TestEventRateLimiter_WindowExpires(t *testing.T) {
	rl := NewEventRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("a") {
		t.Fatalf("first attempt blocked")
	}
	if rl.Allow("a") {
		t.Fatalf("expected block inside window")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatalf("expected allowance after window expiry")
	}
}

func TestEventRateLimiter_Forget(t *testing.T) {
	rl := NewEventRateLimiter(1, time.Hour)
	rl.Allow("a")
	rl.Forget("a")
	if !rl.Allow("a") {
		t.Fatalf("forgotten connection still limited")
	}
}
