// Package scheduler implements the cooperative task queue described in
// spec.md §4.1: two time-ordered heaps (high and low priority), a single
// `run` that executes everything due and reports milliseconds to the next
// task, and implicit cancellation (a task that errors just doesn't
// reschedule itself; the scheduler never aborts a running task).
//
// The core itself is single-threaded and cooperative (spec.md §5): nothing
// here spins up goroutines of its own. A running task may call Add, but
// must not call Run recursively.
package scheduler

import (
	"container/heap"
	"context"
	"time"
)

// TaskFunc is a scheduled unit of work. Returning a non-nil duration
// reschedules the task relative to now; returning nil makes it one-shot.
type TaskFunc func(ctx context.Context) *time.Duration

// Handle identifies a scheduled task for logging/debugging purposes. There
// is no cancellation handle by design (spec.md §4.1: "duplicate-name
// enforcement is not required", and §5: "no user-facing cancellation
// tokens on scheduled tasks").
type Handle struct {
	seq  uint64
	Name string
}

type task struct {
	handle     Handle
	runAt      time.Time
	fn         TaskFunc
	lowPrio    bool
	ctx        context.Context
	heapIndex  int
}

// taskHeap is a container/heap.Interface ordered by runAt, stable on ties
// via insertion sequence (spec.md: "stable on run-at, arbitrary on ties" —
// we pick insertion order for determinism in tests, which satisfies
// "arbitrary" while staying reproducible).
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].runAt.Equal(h[j].runAt) {
		return h[i].handle.seq < h[j].handle.seq
	}
	return h[i].runAt.Before(h[j].runAt)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler holds the high- and low-priority heaps. It is not safe for
// concurrent use — the page runtime drives it from a single goroutine.
type Scheduler struct {
	high taskHeap
	low  taskHeap
	seq  uint64

	// Now is swappable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{Now: time.Now}
}

// AddOptions configures an Add call; see spec.md §4.1's
// add(ctx, fn, delay_ms, {name, low_priority}).
type AddOptions struct {
	Name        string
	LowPriority bool
}

// Add schedules fn to run after delayMS milliseconds (0 = as soon as Run is
// next called) and returns a Handle for logging.
func (s *Scheduler) Add(ctx context.Context, fn TaskFunc, delayMS int64, opts AddOptions) Handle {
	s.seq++
	h := Handle{seq: s.seq, Name: opts.Name}
	t := &task{
		handle:  h,
		runAt:   s.Now().Add(time.Duration(delayMS) * time.Millisecond),
		fn:      fn,
		lowPrio: opts.LowPriority,
		ctx:     ctx,
	}
	if opts.LowPriority {
		heap.Push(&s.low, t)
	} else {
		heap.Push(&s.high, t)
	}
	return h
}

// Run executes every task whose run-at is <= now, high priority first.
// Per spec.md §4.1 the low queue only runs "when high queue is empty or its
// next task is not yet due" — so on each iteration we prefer a due high
// task, then a due low task, then stop. It returns the number of
// milliseconds until the next scheduled task, or nil if the scheduler is
// empty.
//
// Run must not be called reentrantly from within a running task (spec.md
// §4.1: "tasks MUST NOT recursively invoke run"); a task may call Add.
func (s *Scheduler) Run() *int64 {
	for {
		now := s.Now()

		var next *task
		var fromLow bool

		if len(s.high) > 0 && !s.high[0].runAt.After(now) {
			next = s.high[0]
		} else if len(s.low) > 0 && !s.low[0].runAt.After(now) {
			next = s.low[0]
			fromLow = true
		} else {
			break
		}

		if fromLow {
			heap.Pop(&s.low)
		} else {
			heap.Pop(&s.high)
		}

		reschedule := next.fn(next.ctx)
		if reschedule != nil {
			next.runAt = s.Now().Add(*reschedule)
			if fromLow {
				heap.Push(&s.low, next)
			} else {
				heap.Push(&s.high, next)
			}
		}
	}

	return s.msUntilNext()
}

func (s *Scheduler) msUntilNext() *int64 {
	now := s.Now()
	var best *time.Time

	if len(s.high) > 0 {
		t := s.high[0].runAt
		best = &t
	}
	if len(s.low) > 0 {
		t := s.low[0].runAt
		if best == nil || t.Before(*best) {
			best = &t
		}
	}
	if best == nil {
		return nil
	}
	ms := best.Sub(now).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}

// Len reports the total number of pending tasks across both heaps.
func (s *Scheduler) Len() int { return len(s.high) + len(s.low) }

// Empty reports whether no tasks are pending.
func (s *Scheduler) Empty() bool { return s.Len() == 0 }
