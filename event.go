package pagecore

// Event and EventListeners are adapted from atdiar-particleui/event.go,
// whose eventObject/EventHandler/EventListeners already implement almost
// exactly the capture/target/bubble contract spec.md §4.2 describes. The
// differences from the teacher: events here carry a trusted/synthetic flag
// (spec.md §4.2: "events created by the engine have an isTrusted flag; JS-
// constructed ones do not") and dispatch walks a path built by the
// EventManager (eventmanager.go) rather than a single element's handler
// map, since spec.md's target can be reached via capture from the
// document/window root.

// Phase mirrors the standard DOM event phases.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// Event is the mutable dispatch record passed to every listener.
type Event struct {
	typ     string
	target  *Node
	current *Node

	bubbles    bool
	cancelable bool
	trusted    bool

	phase            Phase
	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool

	detail any
}

// NewEvent creates an event of the given type. trusted should be true only
// for events the engine itself creates (spec.md §4.2).
func NewEvent(typ string, bubbles, cancelable, trusted bool, detail any) *Event {
	return &Event{typ: typ, bubbles: bubbles, cancelable: cancelable, trusted: trusted, detail: detail}
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Target() *Node          { return e.target }
func (e *Event) CurrentTarget() *Node   { return e.current }
func (e *Event) Bubbles() bool          { return e.bubbles }
func (e *Event) Cancelable() bool       { return e.cancelable }
func (e *Event) IsTrusted() bool        { return e.trusted }
func (e *Event) Phase() Phase           { return e.phase }
func (e *Event) Stopped() bool          { return e.stopped }
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }
func (e *Event) Detail() any            { return e.detail }

// PreventDefault marks the event's default action as prevented, if
// cancelable. No-op otherwise (matching the teacher's
// `if !e.Cancelable() { return }` guard).
func (e *Event) PreventDefault() {
	if !e.cancelable {
		return
	}
	e.defaultPrevented = true
}

// StopPropagation halts the walk after the current node finishes running
// its remaining listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation halts the walk immediately, including any
// remaining listeners on the current node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// EventHandler wraps a listener function with its registration options,
// the same shape as atdiar-particleui/event.go's EventHandler.
type EventHandler struct {
	Fn      func(*Event)
	Capture bool
	Once    bool
}

// NewEventHandler creates a bubble-phase (capture=false), multi-fire
// (once=false) handler.
func NewEventHandler(fn func(*Event)) *EventHandler {
	return &EventHandler{Fn: fn}
}

// ForCapture returns a copy of h registered for the capture phase.
func (h *EventHandler) ForCapture() *EventHandler {
	cp := *h
	cp.Capture = true
	return &cp
}

// RunOnce returns a copy of h that removes itself after firing once.
func (h *EventHandler) RunOnce() *EventHandler {
	cp := *h
	cp.Once = true
	return &cp
}

// eventHandlerList is an ordered, removal-safe list of handlers for one
// event type, matching atdiar-particleui/event.go's eventHandlers.
type eventHandlerList struct {
	list []*EventHandler
}

func (l *eventHandlerList) add(h *EventHandler) { l.list = append(l.list, h) }

func (l *eventHandlerList) remove(h *EventHandler) {
	out := l.list[:0]
	for _, v := range l.list {
		if v != h {
			out = append(out, v)
		}
	}
	for i := len(out); i < len(l.list); i++ {
		l.list[i] = nil
	}
	l.list = out
}

// EventListeners is the per-node registry of handlers, keyed by event
// type.
type EventListeners struct {
	byType map[string]*eventHandlerList
}

// NewEventListenerStore creates an empty listener registry.
func NewEventListenerStore() EventListeners {
	return EventListeners{byType: make(map[string]*eventHandlerList)}
}

// Add registers h for typ.
func (e *EventListeners) Add(typ string, h *EventHandler) {
	l, ok := e.byType[typ]
	if !ok {
		l = &eventHandlerList{}
		e.byType[typ] = l
	}
	l.add(h)
}

// Remove unregisters h for typ.
func (e *EventListeners) Remove(typ string, h *EventHandler) {
	if l, ok := e.byType[typ]; ok {
		l.remove(h)
	}
}

// invoke runs every listener registered for evt.Type() on this node that
// matches the given capture flag (phase-appropriate subset), honoring
// stopImmediatePropagation and Once removal. Returns true if propagation
// should halt entirely (stopImmediatePropagation or, for capture/bubble,
// stopPropagation was called).
func (e *EventListeners) invoke(evt *Event, wantCapture bool, neutral bool) (haltAfter bool) {
	l, ok := e.byType[evt.Type()]
	if !ok {
		return false
	}
	// Copy so handlers removing themselves (or others) mid-dispatch don't
	// corrupt the iteration, matching the teacher's approach of iterating
	// eh.List directly but relying on Remove's copy-and-truncate semantics.
	handlers := append([]*EventHandler(nil), l.list...)
	for _, h := range handlers {
		if !neutral && h.Capture != wantCapture {
			continue
		}
		h.Fn(evt)
		if h.Once {
			l.remove(h)
		}
		if evt.stoppedImmediate {
			return true
		}
	}
	return evt.stopped
}
