package pagecore

// Native bridging: an embedder (a CDP front-end, a terminal renderer, a
// test harness) wants to observe trusted events and own listener
// registrations on the host's native widget tree without going through
// the JS engine. Adapted from atdiar-particleui/native.go's
// NativeDispatcher/NativeEventBridger contract, generalized from package-
// level singletons to per-Page fields (a headless runtime may host many
// Pages concurrently, unlike the teacher's single-document UI library).

// NativeDispatcher receives the trusted lifecycle events Page dispatches
// (DOMContentLoaded, window load and pageshow), after normal DOM dispatch
// completes; other events are not forwarded. Typically used to forward
// events to an embedder's own UI layer.
type NativeDispatcher func(evt *Event)

// NativeEventBridger lets the embedder hook into AddEventListener calls so
// it can mirror registrations onto a native widget (e.g. a terminal UI's
// own input handling), per event type and capture flag. The returned func,
// if non-nil, is the closure that undoes the native registration; Page
// stores it (NativeEventUnlisteners) and runs it when RemoveEventListener
// unregisters the matching type.
type NativeEventBridger func(eventType string, target *Node, capture bool) func()

// NativeElement is implemented by an embedder's native widget counterpart
// to a Node, mirroring the mutation API's shape so Page can keep a native
// tree in sync without the embedder polling the DOM. node.go's Append/
// Prepend/InsertChildAt/InsertBefore/ReplaceChild/RemoveChild replay onto
// whichever NativeElement a node's parent has attached via
// Node.SetNativeElement.
type NativeElement interface {
	AppendChild(child *Node)
	PrependChild(child *Node)
	InsertChild(child *Node, index int)
	ReplaceChild(old, new *Node)
	RemoveChild(child *Node)
}

// SetNativeElement attaches ne as n's native mirror.
func (n *Node) SetNativeElement(ne NativeElement) {
	n.side().native = ne
}

// nativeMirror returns n's attached native element, if any, without
// allocating elementSideData for a node that never had one set.
func (n *Node) nativeMirror() (NativeElement, bool) {
	if !n.IsElement() || n.elem.side == nil || n.elem.side.native == nil {
		return nil, false
	}
	return n.elem.side.native, true
}

// NativeEventUnlisteners tracks the cleanup closures a NativeEventBridger
// registration produced, one per event type, so RemoveEventListener can
// run the one recorded for that type. Removing a node from the tree does
// not run them.
type NativeEventUnlisteners struct {
	List map[string]func()
}

// NewNativeEventUnlisteners creates an empty tracker.
func NewNativeEventUnlisteners() NativeEventUnlisteners {
	return NativeEventUnlisteners{List: make(map[string]func())}
}

// Add records the unlisten closure for event, unless one is already
// recorded.
func (n NativeEventUnlisteners) Add(event string, f func()) {
	if _, ok := n.List[event]; ok {
		return
	}
	n.List[event] = f
}

// Apply runs and forgets the unlisten closure for event, if any.
func (n NativeEventUnlisteners) Apply(event string) {
	f, ok := n.List[event]
	if !ok {
		return
	}
	delete(n.List, event)
	f()
}

// nativeUnlisteners returns (allocating if necessary) n's unlisten tracker.
func (n *Node) nativeUnlisteners() *NativeEventUnlisteners {
	s := n.side()
	if s.nativeUnlisten == nil {
		u := NewNativeEventUnlisteners()
		s.nativeUnlisten = &u
	}
	return s.nativeUnlisten
}

// nativeUnlistenersOrNil is like nativeUnlisteners but never allocates.
func (n *Node) nativeUnlistenersOrNil() (*NativeEventUnlisteners, bool) {
	if !n.IsElement() || n.elem.side == nil || n.elem.side.nativeUnlisten == nil {
		return nil, false
	}
	return n.elem.side.nativeUnlisten, true
}

// SetNativeDispatch wires d to receive the trusted lifecycle events this
// Page dispatches (see NativeDispatcher).
func (p *Page) SetNativeDispatch(d NativeDispatcher) { p.nativeDispatch = d }

// SetNativeEventBridge wires b to observe AddEventListener calls.
func (p *Page) SetNativeEventBridge(b NativeEventBridger) { p.nativeEventBridge = b }

// dispatchNative forwards a trusted event to the bridged native
// dispatcher, if any.
func (p *Page) dispatchNative(evt *Event) {
	if p.nativeDispatch == nil || !evt.IsTrusted() {
		return
	}
	p.nativeDispatch(evt)
}
