package pagecore

// idMap implements the per-Document id lookup table of spec.md §4.8. The
// only instance lives on Document; shadow roots have no map of their own,
// so ids inside a shadow tree are registered in the Document's map.
// Multiple elements may share the same id attribute value; get resolves to
// the earliest-created candidate, and that answer updates as candidates
// are added or removed, without re-walking the tree on every lookup.
// Moving an element does not change its rank. Grounded on SPEC_FULL.md
// §11.1's resolution of this Open Question: candidates are compared via
// Node.Precedes, backed by the monotonic per-Document seq counter Document
// assigns in tagSeq.
type idMap struct {
	byID map[string][]*Node // all live candidates for a given id, unordered
}

func newIDMap() *idMap {
	return &idMap{byID: make(map[string][]*Node)}
}

// get returns the earliest-created element currently registered for id.
func (m *idMap) get(id string) (*Node, bool) {
	cands := m.byID[id]
	if len(cands) == 0 {
		return nil, false
	}
	earliest := cands[0]
	for _, c := range cands[1:] {
		if c.Precedes(earliest) {
			earliest = c
		}
	}
	return earliest, true
}

// register adds element as a candidate for id. Safe to call redundantly
// (e.g. on an attribute re-set to the same value): duplicates are not
// added twice.
func (m *idMap) register(id string, element *Node) {
	if id == "" {
		return
	}
	for _, c := range m.byID[id] {
		if c == element {
			return
		}
	}
	m.byID[id] = append(m.byID[id], element)
}

// unregister removes element as a candidate for id. If other elements
// still share that id, getElementById will fall back to the next-earliest
// remaining one on its next call — no eager recomputation needed, since
// get() always scans the live candidate set.
func (m *idMap) unregister(id string, element *Node) {
	cands := m.byID[id]
	for i, c := range cands {
		if c == element {
			cands = append(cands[:i], cands[i+1:]...)
			break
		}
	}
	if len(cands) == 0 {
		delete(m.byID, id)
		return
	}
	m.byID[id] = cands
}
