package pagecore

import (
	"testing"
	"time"
)

// TestIdleNotificationFiresExactlyOnceAtThreshold is scenario 6 of spec.md
// §8: the idle notification must not fire before the holding condition has
// been continuous for the full threshold, must fire the instant it has, and
// must never fire a second time.
func TestIdleNotificationFiresExactlyOnceAtThreshold(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	now := func() time.Time { return clock }

	idle := NewIdleNotification("idle", 500*time.Millisecond, now)

	if fired := idle.Update(true); fired {
		t.Fatalf("must not fire on the instant holding begins")
	}

	clock = base.Add(499 * time.Millisecond)
	if fired := idle.Update(true); fired {
		t.Fatalf("must not fire before the threshold elapses (499ms)")
	}
	if idle.Done() {
		t.Fatalf("must not be done before the threshold elapses")
	}

	clock = base.Add(500 * time.Millisecond)
	if fired := idle.Update(true); !fired {
		t.Fatalf("must fire exactly at the threshold (500ms)")
	}
	if !idle.Done() {
		t.Fatalf("expected Done() true immediately after firing")
	}

	// A further Update, even past the threshold, must not fire again.
	clock = base.Add(time.Second)
	if fired := idle.Update(true); fired {
		t.Fatalf("must not fire a second time once done")
	}
}

// TestIdleNotificationResetsOnInterruption covers the "transient break
// resets the hold" half of spec.md §4.5's 3-state machine.
func TestIdleNotificationResetsOnInterruption(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	now := func() time.Time { return clock }

	idle := NewIdleNotification("idle", 500*time.Millisecond, now)
	idle.Update(true)

	clock = base.Add(300 * time.Millisecond)
	idle.Update(false) // holding condition breaks before the threshold

	clock = base.Add(400 * time.Millisecond)
	idle.Update(true) // re-triggered; elapsed time resets to this instant

	clock = base.Add(800 * time.Millisecond) // only 400ms since re-trigger
	if fired := idle.Update(true); fired {
		t.Fatalf("must not fire: elapsed time since the break must reset, not accumulate")
	}

	clock = base.Add(900 * time.Millisecond) // 500ms since re-trigger at 400ms
	if fired := idle.Update(true); !fired {
		t.Fatalf("expected fire once 500ms have elapsed since the reset trigger point")
	}
}

func TestIdleNotificationResetRestartsFromInit(t *testing.T) {
	idle := NewIdleNotification("idle", 500*time.Millisecond, nil)
	idle.state = idleDone
	idle.Reset()
	if idle.Done() {
		t.Fatalf("expected Reset to clear Done")
	}
	if idle.state != idleInit {
		t.Fatalf("expected Reset to return to idleInit, got %v", idle.state)
	}
}
