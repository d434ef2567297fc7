package pagecore

import "time"

// documentIsLoaded fires DOMContentLoaded exactly once per page lifetime,
// per spec.md §4.5. Idempotent: a second call is a no-op. Transitions
// parsing -> load and sets readyState = interactive.
func (p *Page) documentIsLoaded() {
	if p.documentIsLoadedFired {
		return
	}
	p.documentIsLoadedFired = true

	p.Doc.setReadyState(ReadyInteractive)
	if p.loadState == LoadParsing {
		p.loadState = LoadLoad
	}

	evt := NewEvent("DOMContentLoaded", true, false, true, nil)
	p.Events.Dispatch(p.Doc.Root(), evt)
	p.dispatchNative(evt)

	p.performances.Record(PerformanceEntry{Name: "domContentLoadedEventEnd", EntryType: "navigation", StartTime: time.Now()})
}

// documentIsComplete fires the load/pageshow sequence exactly once, per
// spec.md §4.5. May skip the `load` LoadState (async-only pages go
// straight from parsing to complete). Runs queued element `load` events
// first, then window `load`, then `pageshow`, then notifies the parent
// Page if this is a frame (ordering guarantee of spec.md §5: "a frame's
// window load always precedes the parent's window load", achieved via the
// pending-loads counter on the parent).
func (p *Page) documentIsComplete() {
	if p.documentIsCompleteFired {
		return
	}
	p.documentIsCompleteFired = true

	if !p.documentIsLoadedFired {
		p.documentIsLoaded()
	}

	p.loadState = LoadComplete
	p.Doc.setReadyState(ReadyComplete)

	for _, n := range p.pendingElementLoads {
		evt := NewEvent("load", false, false, true, nil)
		p.Events.Dispatch(n, evt)
	}
	p.pendingElementLoads = nil

	windowLoad := NewEvent("load", false, false, true, nil)
	p.Events.Dispatch(p.Window.Node(), windowLoad)
	p.dispatchNative(windowLoad)

	pageshow := NewEvent("pageshow", false, false, true, nil)
	p.Events.Dispatch(p.Doc.Root(), pageshow)
	p.dispatchNative(pageshow)

	p.performances.Record(PerformanceEntry{Name: "loadEventEnd", EntryType: "navigation", StartTime: time.Now()})

	if p.Parent != nil {
		p.Parent.DecPendingLoads()
	}
}

// QueueElementLoad defers an element's `load` event until documentIsComplete
// runs, per spec.md §4.5 ("runs any queued element load events first").
func (p *Page) QueueElementLoad(n *Node) {
	p.pendingElementLoads = append(p.pendingElementLoads, n)
}

// ScriptManagerComplete is called by ScriptManager every time Evaluate()
// drains the normal/deferred lists to empty, which happens repeatedly over
// a page's lifetime (e.g. once per dynamically inserted async script), per
// spec.md §4.6 step 5 ("Signal Page that scripts are complete"). It fires
// documentIsLoaded (itself idempotent) but must decrement the pending-loads
// counter seeded for scripts when the current document was set up (at
// Page creation and on each navigation) exactly once, not once per call,
// or a later script/iframe race could tip pendingLoads to 0 early.
func (p *Page) ScriptManagerComplete() {
	p.documentIsLoaded()
	if p.scriptsPendingLoadDone {
		return
	}
	p.scriptsPendingLoadDone = true
	p.DecPendingLoads()
}
