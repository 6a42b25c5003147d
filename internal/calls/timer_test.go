package calls

import (
	"testing"
	"time"
)

func TestDurationTimer_CountsAndFreezes(t *testing.T) {
	timer := StartDurationTimer(5 * time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for timer.Elapsed() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timer never reached 3, elapsed=%d", timer.Elapsed())
		}
		time.Sleep(time.Millisecond)
	}

	frozen := timer.Stop()
	if frozen < 3 {
		t.Fatalf("expected frozen >= 3, got %d", frozen)
	}

	time.Sleep(20 * time.Millisecond)
	if got := timer.Elapsed(); got != frozen {
		t.Fatalf("timer kept counting after stop: %d != %d", got, frozen)
	}
}

func TestDurationTimer_StopIsIdempotent(t *testing.T) {
	timer := StartDurationTimer(time.Hour)
	first := timer.Stop()
	second := timer.Stop()
	if first != second {
		t.Fatalf("double stop changed value: %d != %d", first, second)
	}
}
