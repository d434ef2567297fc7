package pagecore

// SlotchangeQueue implements spec.md §4.7's slotchange delivery: "collects
// pending slots into a temporary array then clears the pending set before
// dispatching, so events scheduled during delivery are deferred to the
// next cycle."
type SlotchangeQueue struct {
	pending        map[*Node]bool
	scheduled      bool
	queueMicrotask func(func())
	events         *EventManager
}

// NewSlotchangeQueue creates a queue that schedules delivery via
// queueMicrotask.
func NewSlotchangeQueue(queueMicrotask func(func())) *SlotchangeQueue {
	return &SlotchangeQueue{
		pending:        make(map[*Node]bool),
		queueMicrotask: queueMicrotask,
		events:         NewEventManager(),
	}
}

// Signal marks slot as having changed assignment, scheduling a delivery
// pass if one is not already pending.
func (q *SlotchangeQueue) Signal(slot *Node) {
	q.pending[slot] = true
	if q.scheduled {
		return
	}
	q.scheduled = true
	q.queueMicrotask(q.Deliver)
}

// Deliver snapshots and clears the pending set first, then dispatches a
// bubbling, non-cancelable "slotchange" event at each slot in the
// snapshot — so a slotchange handler that itself reassigns a slot gets
// picked up on the next cycle, not this one.
func (q *SlotchangeQueue) Deliver() {
	q.scheduled = false
	slots := make([]*Node, 0, len(q.pending))
	for s := range q.pending {
		slots = append(slots, s)
	}
	q.pending = make(map[*Node]bool)

	for _, s := range slots {
		evt := NewEvent("slotchange", true, false, true, nil)
		q.events.Dispatch(s, evt)
	}
}
