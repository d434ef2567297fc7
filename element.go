package pagecore

// elementData holds everything specific to KindElement nodes, kept out of
// Node itself so non-element nodes (by far the most numerous: every Text
// and Comment) never pay for it. Per spec.md §3's rationale, even within
// elementData the rarely-used fields (classList, dataset, shadow root,
// slot assignment, scroll position, attribute listeners, computed style)
// are pushed one level further into a lazily-allocated *elementSideData,
// since "most elements never need most of these; storing inline would
// waste ≥24 bytes per element across millions of elements".
type elementData struct {
	namespace string
	tagName   string
	attrs     *AttributeList

	side *elementSideData
}

// elementSideData is allocated on first touch of any of these rarely-used
// per-element features.
type elementSideData struct {
	classList        []string
	dataset          map[string]string
	relList          []string
	shadowRoot       *Node
	slotName         string          // the element's own `slot` attribute
	assignedSlot     *Node           // the <slot> this element is assigned to, if any
	scrollX, scrollY float64
	listeners        *EventListeners
	computedStyle    map[string]string
	customElement    *customElementState

	native         NativeElement           // native.go: mirrored native widget, if any
	nativeUnlisten *NativeEventUnlisteners // native.go: pending native listener cleanups, by event type
}

// customElementState tracks custom-element upgrade bookkeeping for one
// element instance (spec.md §4.4).
type customElementState struct {
	definitionName string
	upgraded       bool
	undefined      bool // true if created before a matching definition existed
}

// NewElement creates a detached element of the given namespace and tag
// name, owned by doc. Per spec.md §4.4's invariant, namespace is fixed at
// construction, before any attribute is populated.
func NewElement(doc *Document, namespace, tagName string) *Node {
	n := &Node{
		Kind:  KindElement,
		owner: doc,
		elem: &elementData{
			namespace: namespace,
			tagName:   tagName,
			attrs:     newAttributeList(),
		},
	}
	doc.tagSeq(n)
	return n
}

func (n *Node) mustElem() *elementData {
	if n.Kind != KindElement || n.elem == nil {
		panic("pagecore: node is not an element")
	}
	return n.elem
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool { return n.Kind == KindElement }

// Namespace returns the element's namespace ("html", "svg", "mathml", or,
// for an unrecognized namespace, the string the element was created
// with). Panics if n is not an element.
func (n *Node) Namespace() string { return n.mustElem().namespace }

// TagName returns the element's lowercased tag name. Panics if n is not an
// element.
func (n *Node) TagName() string { return n.mustElem().tagName }

// Attributes returns the element's attribute list. Panics if n is not an
// element.
func (n *Node) Attributes() *AttributeList { return n.mustElem().attrs }

// GetAttribute returns the named attribute's value.
func (n *Node) GetAttribute(name string) (string, bool) {
	return n.mustElem().attrs.Get(name)
}

// SetAttribute sets name to value. It reports whether the value actually
// changed (old != new) so callers can skip firing an attributeChanged
// callback / mutation record when it didn't, satisfying spec.md §8's
// idempotence requirement for createElementNS / repeated identical sets.
func (n *Node) SetAttribute(name, value string) (changed bool) {
	old, existed := n.mustElem().attrs.Set(name, value)
	changed = !existed || old != value
	if changed && n.owner != nil {
		rec := MutationRecord{Kind: MutationAttributes, Target: n, AttributeName: name, NewValue: value}
		if existed {
			rec.OldValue = old
		}
		n.owner.notifyMutation(rec)
		n.afterAttributeChanged(name, old, existed)
	}
	return changed
}

// RemoveAttribute deletes name, reporting whether it was present.
func (n *Node) RemoveAttribute(name string) bool {
	old, existed := n.mustElem().attrs.Remove(name)
	if existed && n.owner != nil {
		n.owner.notifyMutation(MutationRecord{Kind: MutationAttributes, Target: n, AttributeName: name, OldValue: old})
		n.afterAttributeChanged(name, old, existed)
	}
	return existed
}

// afterAttributeChanged runs the side effects spec.md ties to specific
// attribute names: the `id` map (§4.8) and slot (re)assignment (§4.8: "on
// attribute slot or slot name changes, signal slotchange to both the old
// and new slots"). oldExisted/old describe the attribute's prior value,
// already removed/overwritten by the caller by the time this runs.
func (n *Node) afterAttributeChanged(name, old string, oldExisted bool) {
	switch name {
	case "id":
		if oldExisted && old != "" {
			n.owner.UnregisterID(old, n)
		}
		if v, ok := n.GetAttribute("id"); ok && v != "" {
			n.owner.RegisterID(v, n)
		}
	case "slot":
		if n.owner.page != nil {
			n.owner.page.assignSlotIfApplicable(n)
		}
	case "name":
		if n.owner.page != nil && n.IsElement() && n.TagName() == "slot" {
			if host := findShadowHost(n); host != nil {
				n.owner.page.reassignSlotsForHost(host)
			}
		}
	}
	n.notifyAttributeObserver(name, old, oldExisted)
}

// notifyAttributeObserver replays an upgraded custom element's
// AttributeChanged callback when name is one of its definition's Observed
// attributes, per spec.md §4.4's attributeChangedCallback. No-op for any
// element that isn't an upgraded custom element, or whose definition
// doesn't observe name.
func (n *Node) notifyAttributeObserver(name, old string, oldExisted bool) {
	s := n.elem.side
	if s == nil || s.customElement == nil || !s.customElement.upgraded {
		return
	}
	if n.owner.page == nil {
		return
	}
	def, ok := n.owner.page.customElements[s.customElement.definitionName]
	if !ok || def.AttributeChanged == nil {
		return
	}
	observed := false
	for _, o := range def.Observed {
		if o == name {
			observed = true
			break
		}
	}
	if !observed {
		return
	}
	newVal, _ := n.GetAttribute(name)
	oldVal := ""
	if oldExisted {
		oldVal = old
	}
	def.AttributeChanged(n, name, oldVal, newVal)
}

// side returns (allocating if necessary) the element's lazy side-data
// block.
func (n *Node) side() *elementSideData {
	e := n.mustElem()
	if e.side == nil {
		e.side = &elementSideData{}
	}
	return e.side
}

// ClassList returns the element's class list (split from the `class`
// attribute on demand by callers; stored independently here to model the
// live classList side table spec.md §3 describes).
func (n *Node) ClassList() []string { return n.side().classList }

// SetClassList replaces the element's class list.
func (n *Node) SetClassList(classes []string) { n.side().classList = classes }

// Dataset returns the element's dataset map, allocating it on first use.
func (n *Node) Dataset() map[string]string {
	s := n.side()
	if s.dataset == nil {
		s.dataset = make(map[string]string)
	}
	return s.dataset
}

// ScrollPosition returns the element's scroll offset.
func (n *Node) ScrollPosition() (x, y float64) {
	s := n.mustElem().side
	if s == nil {
		return 0, 0
	}
	return s.scrollX, s.scrollY
}

// SetScrollPosition sets the element's scroll offset.
func (n *Node) SetScrollPosition(x, y float64) {
	s := n.side()
	s.scrollX, s.scrollY = x, y
}

// ComputedStyle returns the element's cached computed style map, if any
// has been computed yet.
func (n *Node) ComputedStyle() (map[string]string, bool) {
	s := n.mustElem().side
	if s == nil || s.computedStyle == nil {
		return nil, false
	}
	return s.computedStyle, true
}

// SetComputedStyle caches a computed style map for the element (the
// renderer's concern is out of scope; this just stores whatever the
// embedder computed).
func (n *Node) SetComputedStyle(style map[string]string) {
	n.side().computedStyle = style
}

// listeners() is defined once, on Node itself (node.go), since it must
// work for non-element kinds too (Document's "load" event).
