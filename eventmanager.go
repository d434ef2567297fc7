package pagecore

// EventManager implements the capture/target/bubble dispatch algorithm of
// spec.md §4.2, generalized from atdiar-particleui/event.go's
// EventListeners.Handle phase switch (which dispatches against a single
// element's handler map) into a root-to-target path walk, since here the
// path spans the whole ancestor chain up to Document or Window.
type EventManager struct{}

// NewEventManager creates an EventManager. It holds no state of its own;
// listeners live on each Node via Node.listeners().
func NewEventManager() *EventManager { return &EventManager{} }

// buildPath walks from target up through Parent() to the root, per
// spec.md §4.2 step 1 — path[0] is target itself, the last entry the root.
func buildPath(target *Node) []*Node {
	path := make([]*Node, 0, 8)
	for n := target; n != nil; n = n.Parent() {
		path = append(path, n)
	}
	return path
}

// Dispatch runs the full capture -> target -> bubble algorithm for evt
// against target, per spec.md §4.2 steps 1-5.
func (m *EventManager) Dispatch(target *Node, evt *Event) {
	evt.target = target
	path := buildPath(target) // path[0] == target, path[last] == root

	// Capture phase: walk root -> target (exclude target itself).
	evt.phase = PhaseCapturing
	for i := len(path) - 1; i >= 1; i-- {
		n := path[i]
		evt.current = n
		l := n.listenersOrNil()
		if l == nil {
			continue
		}
		if l.invoke(evt, true, false) {
			return
		}
	}

	// Target phase: listeners on target, capture-flag-neutral.
	evt.phase = PhaseAtTarget
	evt.current = target
	if l := target.listenersOrNil(); l != nil {
		if l.invoke(evt, false, true) {
			return
		}
	}

	// Bubble phase: walk target -> root (exclude target), skip entirely if
	// non-bubbling.
	if !evt.bubbles {
		return
	}
	evt.phase = PhaseBubbling
	for i := 1; i < len(path); i++ {
		n := path[i]
		evt.current = n
		l := n.listenersOrNil()
		if l == nil {
			continue
		}
		if l.invoke(evt, false, false) {
			return
		}
	}
}

// DispatchWithFunction is identical to Dispatch but injects a synthetic
// listener — the inline handler resolved from an on<event> attribute or
// property — at the target position, unless injectTarget is false (the
// window-load case: inject on Window even though target is Document),
// per spec.md §4.2.
func (m *EventManager) DispatchWithFunction(target *Node, evt *Event, inline func(*Event), injectTarget bool, windowNode *Node) {
	evt.target = target

	inlineNode := target
	if !injectTarget {
		inlineNode = windowNode
	}

	injected := NewEventHandler(inline)
	inlineNode.listeners().Add(evt.Type(), injected)
	defer inlineNode.listeners().Remove(evt.Type(), injected)

	m.Dispatch(target, evt)
}

// AddEventListener registers h on n for typ.
func (m *EventManager) AddEventListener(n *Node, typ string, h *EventHandler) {
	n.listeners().Add(typ, h)
}

// RemoveEventListener unregisters h on n for typ.
func (m *EventManager) RemoveEventListener(n *Node, typ string, h *EventHandler) {
	if l := n.listenersOrNil(); l != nil {
		l.Remove(typ, h)
	}
}
