package pagecore

import "time"

// idleState is the 3-state machine of spec.md §4.5: init -> triggered(ts)
// -> done. done is terminal; a transient break in the holding condition
// resets triggered back to init.
type idleState uint8

const (
	idleInit idleState = iota
	idleTriggered
	idleDone
)

// IdleNotification tracks one of the two network-idle detectors (idle =
// 0 concurrent transfers, almostIdle = <=2), firing its notification once
// the condition has held continuously for at least threshold.
//
// Grounded on the teacher's single-boolean reentrancy-guard style
// (atdiar-particleui favors one bool flag per subsystem over a richer
// state object) generalized into an explicit 3-value state plus a
// trigger timestamp, since spec.md's "held continuously for >= 500ms"
// requirement needs to compare elapsed wall-clock time, not just a flag.
type IdleNotification struct {
	name      string
	threshold time.Duration
	state     idleState
	triggered time.Time
	now       func() time.Time
}

// NewIdleNotification creates a tracker for the named condition (e.g.
// "idle" or "almost_idle"). now defaults to time.Now if nil, overridable
// for tests.
func NewIdleNotification(name string, threshold time.Duration, now func() time.Time) *IdleNotification {
	if now == nil {
		now = time.Now
	}
	return &IdleNotification{name: name, threshold: threshold, now: now}
}

// Update reports the current value of the holding condition (e.g.
// concurrentTransfers == 0). It returns true exactly once, the instant
// the condition has held continuously for >= threshold — i.e. when this
// call should cause the notification to fire.
func (i *IdleNotification) Update(holding bool) bool {
	switch i.state {
	case idleDone:
		return false
	case idleInit:
		if holding {
			i.state = idleTriggered
			i.triggered = i.now()
		}
		return false
	case idleTriggered:
		if !holding {
			i.state = idleInit
			return false
		}
		if i.now().Sub(i.triggered) >= i.threshold {
			i.state = idleDone
			return true
		}
		return false
	default:
		return false
	}
}

// Done reports whether the notification has already fired.
func (i *IdleNotification) Done() bool { return i.state == idleDone }

// Reset returns the tracker to its initial state, used when a new
// navigation restarts network-idle tracking.
func (i *IdleNotification) Reset() {
	i.state = idleInit
	i.triggered = time.Time{}
}
