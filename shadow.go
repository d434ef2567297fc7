package pagecore

import (
	"fmt"

	"github.com/atdiar/pagecore/internal/notify"
)

// AttachShadowRoot creates a DocumentFragment shadow root under host and
// records it in host's side data, per spec.md §4.8. Existing children of
// host are left alone; callers compose them with <slot> placement
// themselves (this core does not reproduce the full shadow-DOM
// encapsulation model, only the slot-assignment bookkeeping spec.md §4.8
// names).
func (p *Page) AttachShadowRoot(host *Node) *Node {
	doc := host.Owner()
	root := NewDocumentFragment(doc)
	host.side().shadowRoot = root
	doc.shadowHosts[root] = host
	return root
}

// AssignedSlot returns the <slot> element n is currently assigned to, if
// any (spec.md §4.8's slot-assignment side table).
func (n *Node) AssignedSlot() (*Node, bool) {
	s := n.mustElem().side
	if s == nil || s.assignedSlot == nil {
		return nil, false
	}
	return s.assignedSlot, true
}

// ShadowRoot returns host's attached shadow root, if any.
func (n *Node) ShadowRoot() (*Node, bool) {
	s := n.mustElem().side
	if s == nil || s.shadowRoot == nil {
		return nil, false
	}
	return s.shadowRoot, true
}

// assignSlotIfApplicable implements the slot-assignment half of spec.md
// §4.8: "when an element is inserted under a shadow host, walk the host's
// shadow tree to find a <slot> whose name matches the element's slot
// attribute (or empty for the default slot)."
func (p *Page) assignSlotIfApplicable(n *Node) {
	if !n.IsElement() {
		return
	}
	host := findShadowHost(n)
	if host == nil {
		return
	}
	root, ok := host.ShadowRoot()
	if !ok {
		return
	}
	slotName, _ := n.GetAttribute("slot")
	slot := findSlotByName(root, slotName)
	if slot == nil {
		return
	}

	prevSlot := n.side().assignedSlot
	n.side().slotName = slotName
	n.side().assignedSlot = slot

	if prevSlot != slot {
		p.slotchanges.Signal(slot)
		if prevSlot != nil {
			p.slotchanges.Signal(prevSlot)
		}
	}
}

// reassignSlotsForHost recomputes every one of host's light-DOM children's
// slot assignment, per spec.md §4.8's "on attribute slot or slot name
// changes" rule: when a <slot name> attribute changes inside host's shadow
// tree, every slottable child needs to be matched against the new slot
// layout, not just the child whose own attribute changed.
func (p *Page) reassignSlotsForHost(host *Node) {
	for c := host.FirstChild(); c != nil; c = c.NextSibling() {
		p.assignSlotIfApplicable(c)
	}
}

// findShadowHost walks up from n looking for its shadow host, which can
// show up in the ancestor chain two different ways: n may be a light-DOM
// child of the host itself (the host element carries its own attached
// ShadowRoot, the common case for slot assignment), or n may live inside
// the shadow tree (a <slot> element's own ancestor chain passes through
// the shadow root DocumentFragment itself, resolved via
// Document.shadowHosts since the fragment carries no forward pointer).
func findShadowHost(n *Node) *Node {
	doc := n.Owner()
	if doc == nil {
		return nil
	}
	for anc := n.Parent(); anc != nil; anc = anc.Parent() {
		if anc.Kind == KindDocumentFragment {
			if host, ok := doc.shadowHosts[anc]; ok {
				return host
			}
			continue
		}
		if anc.IsElement() {
			if _, ok := anc.ShadowRoot(); ok {
				return anc
			}
		}
	}
	return nil
}

// findSlotByName searches root's descendants (document order) for a
// <slot> element with the given name attribute (empty string matches the
// default, unnamed slot).
func findSlotByName(root *Node, name string) *Node {
	var found *Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if found != nil {
			return
		}
		if n.IsElement() && n.TagName() == "slot" {
			slotAttr, _ := n.GetAttribute("name")
			if slotAttr == name {
				found = n
				return
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
			if found != nil {
				return
			}
		}
	}
	walk(root)
	return found
}

// createChildFrame wires an <iframe> element's completion into a child
// Page, per spec.md §2's "Pages may contain child Pages (iframes) that
// share the parent's heap but own their own load state" and §4.5's
// pending-loads counter: adding an iframe increments the parent's
// counter; the child's own documentIsComplete decrements it.
func (p *Page) createChildFrame(iframeEl *Node) *Page {
	p.IncPendingLoads()
	child := NewPage(PageOptions{
		ID:     fmt.Sprintf("%s/iframe#%d", p.ID, iframeEl.Seq()),
		Parent: p,
		Config: p.config,
		Client: p.client,
		Engine: p.engine,
		Bus:    p.bus,
		Logger: p.logger,
	})
	p.emit(notify.PageFrameCreated, p.reqID, child.ID, child)
	// Child-frame navigation (the iframe's src attribute) is driven by the
	// embedder explicitly calling Page.Navigate on the returned child,
	// since that call needs a context.Context this parser-driven hook has
	// no good one to default to.
	return child
}
