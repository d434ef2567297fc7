package pagecore

import "fmt"

// ReadyState mirrors document.readyState's three values, per spec.md §4.5's
// load-state machine: parsing is folded into "loading" from script's point
// of view, and the transition loading->interactive->complete is monotonic
// and never reverses.
type ReadyState uint8

const (
	ReadyLoading ReadyState = iota
	ReadyInteractive
	ReadyComplete
)

func (s ReadyState) String() string {
	switch s {
	case ReadyLoading:
		return "loading"
	case ReadyInteractive:
		return "interactive"
	case ReadyComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Document owns one page's DOM tree plus the bookkeeping that spans the
// whole tree: id lookups, the active element, the currently-executing
// script, and the node-creation sequence counter that gives every node a
// creation-order position (SPEC_FULL.md §11.1). Grounded on
// atdiar-particleui's Document in declarative.go, generalized from that
// teacher's single global id-keyed element registry into a per-Document
// map (idmap.go; shadow roots have no map of their own) with
// creation-order collision resolution.
type Document struct {
	root *Node

	page *Page // back-reference; nil until attached to a Page

	readyState ReadyState

	ids *idMap

	activeElement *Node
	currentScript *Node // the <script> element currently executing, or nil

	nextSeq uint64

	// domVersion increments once per delivered mutation notification,
	// the counter spec.md §4.7 ties intersection checks to ("Checks
	// happen whenever the DOM version increments").
	domVersion uint64

	location Location

	// shadowHosts maps a shadow-root DocumentFragment back to its host
	// element, since the DocumentFragment itself carries no such pointer
	// (shadow.go's AttachShadowRoot only sets the forward host->root
	// link). Kept on Document rather than as a field on every Node so
	// the common case (no shadow DOM at all) costs nothing per node.
	shadowHosts map[*Node]*Node
}

// Location models the minimal subset of window.location this core needs:
// the navigated URL's components, set by navigation.go on each commit.
type Location struct {
	URL string
}

// NewDocument creates an empty Document with a fresh root Document node and
// wires the root's owner back-reference to itself.
func NewDocument() *Document {
	d := &Document{}
	d.ids = newIDMap()
	d.shadowHosts = make(map[*Node]*Node)
	d.root = &Node{Kind: KindDocument, owner: d}
	d.tagSeq(d.root)
	return d
}

// tagSeq assigns n the next monotonic sequence number for this document,
// giving every node — including the root itself — a total creation-order
// position from the moment it is constructed, independent of where (or
// whether) it is later inserted into the tree. This is what lets Precedes
// answer id-map collisions (spec.md §4.8) without a tree walk.
func (d *Document) tagSeq(n *Node) {
	d.nextSeq++
	n.seq = d.nextSeq
}

// Root returns the Document node itself (the tree root).
func (d *Document) Root() *Node { return d.root }

// Page returns the Page this document is attached to, or nil.
func (d *Document) Page() *Page { return d.page }

// ReadyState returns the current load-state value.
func (d *Document) ReadyState() ReadyState { return d.readyState }

// setReadyState advances readyState. It is a no-op (and logs nothing,
// since this is an internal invariant, not a user error) if next does not
// move the state forward, enforcing spec.md §4.5's monotonic requirement.
func (d *Document) setReadyState(next ReadyState) bool {
	if next <= d.readyState {
		return false
	}
	d.readyState = next
	return true
}

// notifyMutation forwards rec to the owning Page's mutation-delivery
// queue, suppressing it while document-mode parsing is in progress
// (spec.md §4.3) and no-opping if this Document isn't attached to a Page
// yet (e.g. a bare Document built directly in a test).
func (d *Document) notifyMutation(rec MutationRecord) {
	if d.page == nil || d.page.parsing {
		return
	}
	d.domVersion++
	d.page.mutations.Notify(rec)
	d.page.intersections.ScheduleCheck(d.page.queueMicrotask)
}

// DOMVersion returns the monotonic counter bumped once per delivered
// mutation notification.
func (d *Document) DOMVersion() uint64 { return d.domVersion }

// Write splices html into the document at the current parse insertion
// point, per spec.md §4.3's document_write reentrancy note: a script
// running mid-parse (invoked from ScriptManager.runScript, itself called
// from the parser's NodeComplete callback) may call this to have its
// markup parsed in place before the outer parse resumes. Outside of a
// mid-parse script — the document finished loading, or there's no script
// currently executing at all — there is no insertion point to splice
// into, so Write reports an error instead of silently doing nothing.
func (d *Document) Write(html string) error {
	if d.page == nil || !d.page.parsing || d.page.activeDriver == nil {
		return fmt.Errorf("pagecore: document.write requires an in-progress document parse")
	}
	script := d.CurrentScript()
	if script == nil || script.Parent() == nil {
		return fmt.Errorf("pagecore: document.write requires a currently-executing script with a parent node")
	}
	return d.page.activeDriver.Write(script.Parent(), html)
}

// ActiveElement returns the currently focused element, or the document
// root if none has been explicitly focused.
func (d *Document) ActiveElement() *Node {
	if d.activeElement != nil {
		return d.activeElement
	}
	return d.root
}

// SetActiveElement updates the focused element.
func (d *Document) SetActiveElement(n *Node) { d.activeElement = n }

// CurrentScript returns the <script> element presently being evaluated, or
// nil outside of script evaluation.
func (d *Document) CurrentScript() *Node { return d.currentScript }

// SetCurrentScript is called by the ScriptManager around each evaluation.
func (d *Document) SetCurrentScript(n *Node) { d.currentScript = n }

// Location returns the document's current location.
func (d *Document) Location() Location { return d.location }

// SetLocation updates the document's location (called on navigation
// commit).
func (d *Document) SetLocation(loc Location) { d.location = loc }

// GetElementByID resolves name through the id-map, per spec.md §4.8.
func (d *Document) GetElementByID(name string) (*Node, bool) {
	return d.ids.get(name)
}

// RegisterID records that element now has the given id value, updating
// the id-map's earliest-created candidate per spec.md §4.8.
func (d *Document) RegisterID(id string, element *Node) {
	d.ids.register(id, element)
}

// UnregisterID removes element as a candidate for id, falling back to the
// next-earliest remaining candidate with that id if any. No separate set
// of removed ids is kept.
func (d *Document) UnregisterID(id string, element *Node) {
	d.ids.unregister(id, element)
}

// CreateElement creates a detached HTML-namespace element via the full
// createElementNS dispatch (elementcreate.go), the common entry point used
// both by parsing (through htmldriver's Sink) and by script's
// document.createElement.
func (d *Document) CreateElement(tagName string) *Node {
	return d.CreateElementNS("html", tagName, nil)
}

// CreateTextNode creates a detached Text node.
func (d *Document) CreateTextNode(data string) *Node { return NewText(d, data) }

// CreateComment creates a detached Comment node.
func (d *Document) CreateComment(data string) *Node { return NewComment(d, data) }

// CreateDocumentFragment creates a detached DocumentFragment.
func (d *Document) CreateDocumentFragment() *Node { return NewDocumentFragment(d) }

// String implements fmt.Stringer for diagnostics (log lines), not
// serialization — see serialize.go for the real HTML serializer.
func (d *Document) String() string {
	return fmt.Sprintf("Document(readyState=%s, nodes=%d)", d.readyState, d.nextSeq)
}
