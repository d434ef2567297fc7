package pagecore

import (
	"context"
	"time"

	"github.com/atdiar/pagecore/internal/scheduler"
)

// PerformanceEntry is one recorded timing measurement (a navigation
// milestone, a resource fetch, or a mark/measure pair).
type PerformanceEntry struct {
	Name      string
	EntryType string
	StartTime time.Time
	Duration  time.Duration
}

// PerformanceObserverCallback receives newly buffered entries.
type PerformanceObserverCallback func(entries []PerformanceEntry)

// PerformanceObserver accumulates entries matching its subscribed types
// and delivers them on the low-priority scheduler, per spec.md §4.7:
// "delivery is requested... from the low-priority scheduler
// (performance)."
type PerformanceObserver struct {
	callback     PerformanceObserverCallback
	types        map[string]bool
	pending      []PerformanceEntry
	disconnected bool
}

// NewPerformanceObserver creates an observer watching the given entry
// types.
func NewPerformanceObserver(cb PerformanceObserverCallback, types []string) *PerformanceObserver {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return &PerformanceObserver{callback: cb, types: set}
}

// Disconnect stops the observer from receiving further entries.
func (o *PerformanceObserver) Disconnect() { o.disconnected = true }

// PerformanceQueue is the per-Page buffer of all recorded entries plus
// the set of observers subscribed to them, drained via a low-priority
// scheduler task rather than a JS-engine microtask.
type PerformanceQueue struct {
	sched     *scheduler.Scheduler
	observers []*PerformanceObserver
	buffer    []PerformanceEntry

	scheduled bool
}

// NewPerformanceQueue creates a queue that delivers through sched's
// low-priority heap.
func NewPerformanceQueue(sched *scheduler.Scheduler) *PerformanceQueue {
	return &PerformanceQueue{sched: sched}
}

// Register adds o to the set of observers this queue will deliver to.
func (q *PerformanceQueue) Register(o *PerformanceObserver) {
	q.observers = append(q.observers, o)
}

// Unregister removes o.
func (q *PerformanceQueue) Unregister(o *PerformanceObserver) {
	for i, ob := range q.observers {
		if ob == o {
			q.observers = append(q.observers[:i], q.observers[i+1:]...)
			return
		}
	}
}

// Record appends entry to the buffer and queues matching observers for
// delivery, and schedules a low-priority drain task if one is not already
// pending.
func (q *PerformanceQueue) Record(entry PerformanceEntry) {
	q.buffer = append(q.buffer, entry)
	for _, o := range q.observers {
		if o.disconnected || !o.types[entry.EntryType] {
			continue
		}
		o.pending = append(o.pending, entry)
	}
	q.scheduleDeliver()
}

func (q *PerformanceQueue) scheduleDeliver() {
	if q.scheduled {
		return
	}
	q.scheduled = true
	q.sched.Add(context.Background(), func(context.Context) *time.Duration {
		q.Deliver()
		return nil
	}, 0, scheduler.AddOptions{Name: "performance-delivery", LowPriority: true})
}

// Deliver flushes every observer's pending entries to its callback.
func (q *PerformanceQueue) Deliver() {
	q.scheduled = false
	for _, o := range q.observers {
		if o.disconnected || len(o.pending) == 0 {
			continue
		}
		entries := o.pending
		o.pending = nil
		o.callback(entries)
	}
}

// Entries returns a copy of the full recorded buffer (performance.
// getEntries()).
func (q *PerformanceQueue) Entries() []PerformanceEntry {
	return append([]PerformanceEntry(nil), q.buffer...)
}
