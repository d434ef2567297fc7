package pagecore

// MutationObserver implements the mutation-observer subsystem of
// spec.md §4.7, adapted from atdiar-particleui/mutation.go's
// MutationCallbacks/MutationHandler/Mutation schedule-deliver shape: that
// file already accumulates events into a per-key handler list and debounces
// via a register/dispatch pair. Here records accumulate per-observer
// (rather than dispatching one handler per key immediately), delivery is
// debounced by a single "delivery scheduled" boolean per spec.md §4.7, and
// a reentrancy depth counter bounds runaway delivery-triggers-more-mutation
// cycles at 100 levels, logging and abandoning beyond that rather than
// erroring (spec.md §7's "Reentrancy limits... silently limited").

// MutationKind classifies what changed.
type MutationKind string

const (
	MutationChildList  MutationKind = "childList"
	MutationAttributes MutationKind = "attributes"
	MutationCharacterData MutationKind = "characterData"
)

// MutationRecord describes one observed change, modeled on the DOM
// MutationRecord interface.
type MutationRecord struct {
	Kind           MutationKind
	Target         *Node
	AttributeName  string
	OldValue       string
	NewValue       string
	AddedNodes     []*Node
	RemovedNodes   []*Node
}

// MutationObserverCallback receives a batch of records in the order they
// occurred, per spec.md §5's ordering guarantee ("Mutation records within a
// single batch preserve the order in which mutations occurred").
type MutationObserverCallback func(records []MutationRecord)

// MutationObserverInit mirrors the DOM MutationObserverInit dictionary:
// which kinds of change on the observed target (and, with Subtree, its
// descendants) should produce a record.
type MutationObserverInit struct {
	ChildList         bool
	Attributes        bool
	CharacterData     bool
	Subtree           bool
	AttributeOldValue bool
}

// observeEntry is one target this observer watches, per spec.md §4.7:
// one observer may be attached to several targets, each with its own
// options (re-observing the same target replaces its options, per the DOM
// MutationObserver.observe() spec).
type observeEntry struct {
	target *Node
	opts   MutationObserverInit
}

// MutationObserver accumulates records for a set of observed targets and
// delivers them in scheduled batches.
type MutationObserver struct {
	callback MutationObserverCallback
	pending  []MutationRecord
	targets  []observeEntry

	scheduled bool
	disconnected bool
}

// Observe starts watching target under opts, replacing any prior options
// registered for the same target.
func (o *MutationObserver) Observe(target *Node, opts MutationObserverInit) {
	for i := range o.targets {
		if o.targets[i].target == target {
			o.targets[i].opts = opts
			return
		}
	}
	o.targets = append(o.targets, observeEntry{target: target, opts: opts})
}

// Unobserve stops watching target, if it was being watched.
func (o *MutationObserver) Unobserve(target *Node) {
	for i, e := range o.targets {
		if e.target == target {
			o.targets = append(o.targets[:i], o.targets[i+1:]...)
			return
		}
	}
}

// matches reports whether a mutation of the given kind at n is within
// scope of any target this observer watches: either n is the watched
// target itself, or it is a descendant and the watch has Subtree set.
func (o *MutationObserver) matches(n *Node, kind MutationKind) bool {
	for _, e := range o.targets {
		switch kind {
		case MutationChildList:
			if !e.opts.ChildList {
				continue
			}
		case MutationAttributes:
			if !e.opts.Attributes {
				continue
			}
		case MutationCharacterData:
			if !e.opts.CharacterData {
				continue
			}
		}
		if e.target == n {
			return true
		}
		if e.opts.Subtree && isDescendant(e.target, n) {
			return true
		}
	}
	return false
}

// isDescendant reports whether n is a (possibly indirect) descendant of
// ancestor.
func isDescendant(ancestor, n *Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// NewMutationObserver creates an observer with the given delivery
// callback.
func NewMutationObserver(cb MutationObserverCallback) *MutationObserver {
	return &MutationObserver{callback: cb}
}

// Record appends rec to the observer's pending queue. The caller
// (Document's mutation hooks) is responsible for calling this only when
// the target is actually being observed and for suppressing calls during
// document-mode parsing, per spec.md §4.3.
func (o *MutationObserver) Record(rec MutationRecord) {
	if o.disconnected {
		return
	}
	o.pending = append(o.pending, rec)
}

// TakeRecords synchronously drains and returns the pending queue without
// invoking the callback, matching MutationObserver.takeRecords().
func (o *MutationObserver) TakeRecords() []MutationRecord {
	out := o.pending
	o.pending = nil
	return out
}

// Disconnect stops further recording and clears any pending records and
// watched targets.
func (o *MutationObserver) Disconnect() {
	o.disconnected = true
	o.pending = nil
	o.scheduled = false
	o.targets = nil
}

// MutationDeliveryQueue schedules and drives delivery for a set of
// observers, enforcing the 100-level reentrancy depth limit of spec.md
// §4.7. One queue per Page.
type MutationDeliveryQueue struct {
	observers []*MutationObserver
	depth     int
	onLog     func(msg string)
	queueMicrotask func(fn func())
}

// MaxMutationDeliveryDepth is the reentrancy bound spec.md §4.7 specifies:
// delivering mutations can cause JS to mutate more, which reschedules
// delivery; beyond this many nested levels, delivery is abandoned with a
// logged error.
const MaxMutationDeliveryDepth = 100

// NewMutationDeliveryQueue creates a queue that schedules delivery via
// queueMicrotask (normally Engine.QueueMutationDelivery) and logs
// abandoned-reentrancy events via onLog.
func NewMutationDeliveryQueue(queueMicrotask func(fn func()), onLog func(msg string)) *MutationDeliveryQueue {
	if onLog == nil {
		onLog = func(string) {}
	}
	return &MutationDeliveryQueue{queueMicrotask: queueMicrotask, onLog: onLog}
}

// Register adds o to the set of observers this queue will flush on
// delivery.
func (q *MutationDeliveryQueue) Register(o *MutationObserver) {
	q.observers = append(q.observers, o)
}

// Unregister removes o (e.g. on observer.disconnect()).
func (q *MutationDeliveryQueue) Unregister(o *MutationObserver) {
	for i, ob := range q.observers {
		if ob == o {
			q.observers = append(q.observers[:i], q.observers[i+1:]...)
			return
		}
	}
}

// ScheduleDelivery debounces a delivery pass: if one isn't already
// scheduled, queue a microtask to run Deliver. Safe to call repeatedly as
// mutations occur.
func (q *MutationDeliveryQueue) ScheduleDelivery() {
	for _, o := range q.observers {
		if o.scheduled {
			return
		}
	}
	for _, o := range q.observers {
		o.scheduled = true
	}
	q.queueMicrotask(q.Deliver)
}

// Deliver flushes every registered observer's pending records to its
// callback, in registration order. If this call is itself happening as a
// result of a delivery-triggered mutation (depth already at the limit), it
// logs and returns without delivering, breaking the runaway-recursion
// cycle per spec.md §4.7/§7.
func (q *MutationDeliveryQueue) Deliver() {
	if q.depth >= MaxMutationDeliveryDepth {
		q.onLog("mutation delivery abandoned: reentrancy depth limit reached")
		return
	}
	q.depth++
	defer func() { q.depth-- }()

	for _, o := range q.observers {
		o.scheduled = false
		if o.disconnected {
			continue
		}
		records := o.TakeRecords()
		if len(records) == 0 {
			continue
		}
		o.callback(records)
	}
}

// Depth reports the current reentrancy depth (0 when not inside Deliver).
func (q *MutationDeliveryQueue) Depth() int { return q.depth }

// Notify records rec against every registered observer whose watch scope
// matches it and schedules delivery if at least one did, per spec.md
// §4.7. Callers (node.go's insert/remove API, element.go's attribute
// setters) are expected to skip calling this during document-mode
// parsing, per §4.3's "mutation records are suppressed until parsing
// ends" rule — fragment-mode parsing and post-parse DOM API calls both
// call through normally.
func (q *MutationDeliveryQueue) Notify(rec MutationRecord) {
	matched := false
	for _, o := range q.observers {
		if o.disconnected {
			continue
		}
		if o.matches(rec.Target, rec.Kind) {
			o.Record(rec)
			matched = true
		}
	}
	if matched {
		q.ScheduleDelivery()
	}
}
