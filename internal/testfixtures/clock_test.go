package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("zero start should use ReferenceTime, got %v", clock.Now())
	}

	next := clock.Advance(90 * time.Minute)
	if want := ReferenceTime().Add(90 * time.Minute); !next.Equal(want) || !clock.NowFunc()().Equal(want) {
		t.Fatalf("Advance = %v, want %v", next, want)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatalf("nil clock should fall back to wall time")
	}
}
