package pagecore

// IntersectionObserver and its delivery queue implement spec.md §4.7's
// intersection subsystem: "checks" (recompute visibility) and "deliveries"
// (invoke callbacks) are scheduled separately. No pack repo implements
// IntersectionObserver, so this is built directly from spec.md's text,
// reusing the teacher's list-plus-reverse-iteration style already seen in
// atdiar-particleui/event.go's handler removal loop (iterate backwards so
// a callback disconnecting an observer mid-iteration can't skip a
// neighbor).

// IntersectionEntry is one observed target's visibility snapshot.
type IntersectionEntry struct {
	Target        *Node
	IsIntersecting bool
	Ratio         float64
}

// IntersectionObserverCallback receives a batch of entries.
type IntersectionObserverCallback func(entries []IntersectionEntry)

// IntersectionObserver watches a set of targets and reports visibility
// changes.
type IntersectionObserver struct {
	callback IntersectionObserverCallback
	targets  []*Node
	last     map[*Node]IntersectionEntry
	pending  []IntersectionEntry

	disconnected bool
}

// NewIntersectionObserver creates an observer with the given callback.
func NewIntersectionObserver(cb IntersectionObserverCallback) *IntersectionObserver {
	return &IntersectionObserver{callback: cb, last: make(map[*Node]IntersectionEntry)}
}

// Observe adds target to the watched set.
func (o *IntersectionObserver) Observe(target *Node) {
	o.targets = append(o.targets, target)
}

// Unobserve removes target from the watched set.
func (o *IntersectionObserver) Unobserve(target *Node) {
	for i, t := range o.targets {
		if t == target {
			o.targets = append(o.targets[:i], o.targets[i+1:]...)
			delete(o.last, target)
			return
		}
	}
}

// Disconnect stops observing everything.
func (o *IntersectionObserver) Disconnect() {
	o.disconnected = true
	o.targets = nil
	o.pending = nil
}

// TakeRecords drains queued-but-undelivered entries.
func (o *IntersectionObserver) TakeRecords() []IntersectionEntry {
	out := o.pending
	o.pending = nil
	return out
}

// IntersectionQueue recomputes and delivers intersection changes. One
// queue per Page.
type IntersectionQueue struct {
	observers    []*IntersectionObserver
	checkScheduled bool
	computeFn    func(target *Node) IntersectionEntry
}

// NewIntersectionQueue creates a queue. computeFn supplies the actual
// visibility computation, which is a renderer/layout concern out of this
// core's scope (spec.md §1's non-goals exclude rendering pixels); a no-op
// computeFn is acceptable for headless use where layout never occurs.
func NewIntersectionQueue(computeFn func(target *Node) IntersectionEntry) *IntersectionQueue {
	return &IntersectionQueue{computeFn: computeFn}
}

// Register adds o to the set this queue checks/delivers.
func (q *IntersectionQueue) Register(o *IntersectionObserver) {
	q.observers = append(q.observers, o)
}

// Unregister removes o.
func (q *IntersectionQueue) Unregister(o *IntersectionObserver) {
	for i, ob := range q.observers {
		if ob == o {
			q.observers = append(q.observers[:i], q.observers[i+1:]...)
			return
		}
	}
}

// ScheduleCheck debounces a recompute pass, per spec.md §4.7: "Checks
// happen whenever the DOM version increments and no check is already
// scheduled." Callers should call this whenever the DOM version counter
// (Document.domVersion) increments.
func (q *IntersectionQueue) ScheduleCheck(runNow func(fn func())) {
	if q.checkScheduled {
		return
	}
	q.checkScheduled = true
	runNow(func() { q.Check(q.Deliver) })
}

// Check recomputes visibility for every observed target across every
// observer and queues entries whose intersection state changed, then
// triggers a delivery pass via deliver.
func (q *IntersectionQueue) Check(deliver func()) {
	q.checkScheduled = false
	changed := false
	for _, o := range q.observers {
		if o.disconnected {
			continue
		}
		for _, t := range o.targets {
			entry := q.computeFn(t)
			prev, had := o.last[t]
			if !had || prev.IsIntersecting != entry.IsIntersecting || prev.Ratio != entry.Ratio {
				o.last[t] = entry
				o.pending = append(o.pending, entry)
				changed = true
			}
		}
	}
	if changed {
		deliver()
	}
}

// Deliver invokes every observer's callback with its pending entries, in
// reverse observer-index order so that disconnect() called from within a
// callback can't cause a later observer in the original order to be
// skipped (spec.md §4.7: "Delivery iterates the observer list in reverse
// index order to tolerate disconnect() during callbacks").
func (q *IntersectionQueue) Deliver() {
	for i := len(q.observers) - 1; i >= 0; i-- {
		o := q.observers[i]
		if o.disconnected {
			continue
		}
		entries := o.TakeRecords()
		if len(entries) == 0 {
			continue
		}
		o.callback(entries)
	}
}
