package engine

import (
	"testing"
	"time"
)

func TestLimiterAllowsFirstBatch(t *testing.T) {
	l := newScrollLimiter()
	if !l.Allow(time.Unix(1000, 0)) {
		t.Fatal("first emission denied")
	}
}

func TestLimiterDeniesWithinInterval(t *testing.T) {
	l := newScrollLimiter()
	start := time.Unix(1000, 0)
	l.Allow(start)
	if l.Allow(start.Add(10 * time.Millisecond)) {
		t.Error("emission allowed 10ms after the previous one")
	}
	if l.Allow(start.Add(29 * time.Millisecond)) {
		t.Error("emission allowed 29ms after the previous one")
	}
}

func TestLimiterAllowsAfterInterval(t *testing.T) {
	l := newScrollLimiter()
	start := time.Unix(1000, 0)
	l.Allow(start)
	if !l.Allow(start.Add(minScrollInterval)) {
		t.Error("emission denied a full interval after the previous one")
	}
}

func TestLimiterDenialConsumesNothing(t *testing.T) {
	l := newScrollLimiter()
	start := time.Unix(1000, 0)
	l.Allow(start)
	l.Allow(start.Add(10 * time.Millisecond)) // denied
	if !l.Allow(start.Add(minScrollInterval)) {
		t.Error("a denied attempt pushed back the next allowed emission")
	}
}
