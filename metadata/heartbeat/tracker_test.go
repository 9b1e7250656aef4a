package heartbeat_test

import (
	"sync"
	"testing"
	"time"

	"github.com/skua-io/skua/metadata/heartbeat"
)

func TestSessions(t *testing.T) {
	tracker := heartbeat.NewTracker(9 * time.Second)
	base := time.Now().UnixNano()

	if tracker.HasValidSession(1, base) {
		t.Fatalf("expected untouched node 1 to have no session")
	}

	tracker.Touch(1, false, base)

	testCases := map[string]struct {
		nowNanos int64
		valid    bool
	}{
		"immediately":     {nowNanos: base, valid: true},
		"within-timeout":  {nowNanos: base + (5 * time.Second).Nanoseconds(), valid: true},
		"at-timeout":      {nowNanos: base + (9 * time.Second).Nanoseconds(), valid: true},
		"past-timeout":    {nowNanos: base + (10 * time.Second).Nanoseconds(), valid: false},
		"long-past":       {nowNanos: base + time.Hour.Nanoseconds(), valid: false},
		"clock-went-back": {nowNanos: base - time.Second.Nanoseconds(), valid: true},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			if tracker.HasValidSession(1, testCase.nowNanos) != testCase.valid {
				t.Fatalf("expected valid to be %t at %d", testCase.valid, testCase.nowNanos)
			}
		})
	}
}

func TestNewestObservationWins(t *testing.T) {
	tracker := heartbeat.NewTracker(time.Second)
	base := time.Now().UnixNano()

	tracker.Touch(1, false, base)
	tracker.Touch(1, true, base-1000)

	last, ok := tracker.LastObservation(1)

	if !ok {
		t.Fatalf("expected an observation for node 1")
	}

	if last.TimeNanos != base || last.Fenced {
		t.Fatalf("expected the older touch to be ignored, got %#v", last)
	}
}

func TestForget(t *testing.T) {
	tracker := heartbeat.NewTracker(time.Second)
	base := time.Now().UnixNano()

	tracker.Touch(1, false, base)
	tracker.Forget(1)

	if tracker.HasValidSession(1, base) {
		t.Fatalf("expected no session after Forget")
	}
}

func TestConcurrentTouches(t *testing.T) {
	tracker := heartbeat.NewTracker(time.Second)
	base := time.Now().UnixNano()

	var wg sync.WaitGroup

	for worker := 0; worker < 8; worker++ {
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()

			for i := 0; i < 1000; i++ {
				tracker.Touch(int32(i%16), false, base+int64(i))
			}
		}(worker)
	}

	wg.Wait()

	for id := int32(0); id < 16; id++ {
		last, ok := tracker.LastObservation(id)

		if !ok {
			t.Fatalf("expected an observation for node %d", id)
		}

		if last.TimeNanos < base {
			t.Fatalf("expected node %d observation to be at or after base, got %d", id, last.TimeNanos)
		}
	}
}
