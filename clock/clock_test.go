package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	if !fake.Now().Equal(start) {
		t.Errorf("expected %v, got %v", start, fake.Now())
	}

	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("expected %v, got %v", start.Add(90*time.Second), got)
	}

	pinned := start.Add(time.Hour)
	fake.Set(pinned)
	if !fake.Now().Equal(pinned) {
		t.Errorf("expected %v, got %v", pinned, fake.Now())
	}
}

func TestSystem_NowMovesForward(t *testing.T) {
	var c Clock = System{}
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("system clock went backwards: %v then %v", a, b)
	}
}
