package pagecore

// AttributeList is the ordered sequence of (name, value) pairs an element
// carries, per spec.md §3. Lookup by name is O(1) via a name->index map
// for the common case (small N); on-demand materialization of a proper
// Attribute node is handled separately so that repeated reads don't pay
// for node identity unless something actually asks for it (e.g.
// getAttributeNode / the attributes NamedNodeMap).
type AttributeList struct {
	names  []string
	values []string
	index  map[string]int

	// nodes lazily holds the materialized Attribute for a given slot index,
	// keyed by index so that the same Attribute object is returned for
	// repeated getAttributeNode calls on the same underlying slot (spec.md
	// §3: "a second pointer-keyed lookup table ensures the same Attribute
	// object is returned for the same underlying slot").
	nodes map[int]*Attribute
}

// Attribute is the identity-bearing wrapper around one attribute slot,
// materialized on demand (e.g. by Element.GetAttributeNode).
type Attribute struct {
	list *AttributeList
	slot int
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.list.names[a.slot] }

// Value returns the attribute's current value.
func (a *Attribute) Value() string { return a.list.values[a.slot] }

func newAttributeList() *AttributeList {
	return &AttributeList{index: make(map[string]int, 4)}
}

// Len returns the number of attributes.
func (al *AttributeList) Len() int { return len(al.names) }

// At returns the name/value pair at position i, in insertion order.
func (al *AttributeList) At(i int) (name, value string) {
	return al.names[i], al.values[i]
}

// Get returns the value for name and whether it is present.
func (al *AttributeList) Get(name string) (string, bool) {
	i, ok := al.index[name]
	if !ok {
		return "", false
	}
	return al.values[i], true
}

// Set inserts or updates name's value. Returns the previous value and
// whether the attribute already existed (needed by callers to decide
// whether to fire an attributeChangedCallback / mutation record, and to
// satisfy spec.md §8's "setting an attribute to its current value yields
// identical observable state and emits no change event" idempotence
// requirement — callers should compare old==new themselves and skip
// notification when equal; Set itself always writes, since the decision to
// notify belongs to the element, not the attribute list).
func (al *AttributeList) Set(name, value string) (old string, existed bool) {
	if i, ok := al.index[name]; ok {
		old = al.values[i]
		al.values[i] = value
		return old, true
	}
	al.index[name] = len(al.names)
	al.names = append(al.names, name)
	al.values = append(al.values, value)
	return "", false
}

// Remove deletes name. Returns the removed value and whether it was
// present. Removing shifts later indices down by one and keeps any
// materialized Attribute nodes for the removed slot pointing at a detached
// copy rather than silently aliasing a different attribute.
func (al *AttributeList) Remove(name string) (old string, existed bool) {
	i, ok := al.index[name]
	if !ok {
		return "", false
	}
	old = al.values[i]

	if detached, has := al.nodes[i]; has {
		// Freeze the detached Attribute's view by giving it its own
		// single-slot list, so existing references to it stay valid per
		// spec.md's DOM Attribute Node semantics (a removed attribute node
		// is still a live object, just no longer owned by the element).
		frozen := newAttributeList()
		frozen.Set(detached.Name(), detached.Value())
		detached.list = frozen
		detached.slot = 0
		delete(al.nodes, i)
	}

	al.names = append(al.names[:i], al.names[i+1:]...)
	al.values = append(al.values[:i], al.values[i+1:]...)
	delete(al.index, name)
	for n, idx := range al.index {
		if idx > i {
			al.index[n] = idx - 1
		}
	}
	if al.nodes != nil {
		shifted := make(map[int]*Attribute, len(al.nodes))
		for idx, attr := range al.nodes {
			if idx > i {
				attr.slot = idx - 1
				shifted[idx-1] = attr
			} else {
				shifted[idx] = attr
			}
		}
		al.nodes = shifted
	}
	return old, true
}

// Node returns the identity-bearing Attribute wrapper for name, creating it
// on first access and returning the same instance thereafter for as long
// as the slot isn't removed.
func (al *AttributeList) Node(name string) (*Attribute, bool) {
	i, ok := al.index[name]
	if !ok {
		return nil, false
	}
	if al.nodes == nil {
		al.nodes = make(map[int]*Attribute, 2)
	}
	if attr, ok := al.nodes[i]; ok {
		return attr, true
	}
	attr := &Attribute{list: al, slot: i}
	al.nodes[i] = attr
	return attr, true
}
