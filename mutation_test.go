package pagecore

import "testing"

func TestMutationDeliveryBatchesInOrder(t *testing.T) {
	var delivered []func()
	queueMicrotask := func(fn func()) { delivered = append(delivered, fn) }

	q := NewMutationDeliveryQueue(queueMicrotask, nil)

	var records []MutationRecord
	obs := NewMutationObserver(func(recs []MutationRecord) {
		records = append(records, recs...)
	})
	q.Register(obs)

	doc := NewDocument()
	a := NewElement(doc, "html", "a")
	b := NewElement(doc, "html", "b")

	obs.Record(MutationRecord{Kind: MutationChildList, Target: a})
	q.ScheduleDelivery()
	obs.Record(MutationRecord{Kind: MutationChildList, Target: b})
	q.ScheduleDelivery() // must not schedule a second microtask

	if len(delivered) != 1 {
		t.Fatalf("expected exactly one scheduled delivery, got %d", len(delivered))
	}

	delivered[0]()

	if len(records) != 2 || records[0].Target != a || records[1].Target != b {
		t.Fatalf("expected records in occurrence order [a,b], got %v", records)
	}
}

func TestMutationDeliveryReentrancyLimit(t *testing.T) {
	var loggedMsg string
	q := NewMutationDeliveryQueue(func(fn func()) { fn() }, func(msg string) { loggedMsg = msg })

	obs := NewMutationObserver(func(recs []MutationRecord) {
		// Every delivered batch re-triggers another delivery, simulating a
		// script handler that mutates the DOM in response.
		obs.Record(MutationRecord{Kind: MutationChildList})
		q.ScheduleDelivery()
	})
	q.Register(obs)

	obs.Record(MutationRecord{Kind: MutationChildList})
	q.ScheduleDelivery()

	if loggedMsg == "" {
		t.Fatalf("expected the reentrancy limit to trip and log an abandonment message")
	}
	if q.Depth() != 0 {
		t.Fatalf("expected depth to have unwound back to 0 after the recursive chain, got %d", q.Depth())
	}
}

func TestMutationObserverDisconnectDropsPending(t *testing.T) {
	obs := NewMutationObserver(func([]MutationRecord) {
		t.Fatalf("callback must not run after Disconnect")
	})
	obs.Record(MutationRecord{Kind: MutationAttributes})
	obs.Disconnect()

	if recs := obs.TakeRecords(); len(recs) != 0 {
		t.Fatalf("expected TakeRecords to be empty after Disconnect, got %v", recs)
	}

	obs.Record(MutationRecord{Kind: MutationAttributes})
	if recs := obs.TakeRecords(); len(recs) != 0 {
		t.Fatalf("expected Record to be a no-op after Disconnect, got %v", recs)
	}
}

// TestMatchesGatesCharacterDataOnItsOwnOption covers the CharacterData
// init flag: an observer that asked only for ChildList must not match a
// characterData mutation, and one that asked for CharacterData must.
func TestMatchesGatesCharacterDataOnItsOwnOption(t *testing.T) {
	doc := NewDocument()
	target := NewElement(doc, "html", "span")

	childListOnly := NewMutationObserver(func([]MutationRecord) {})
	childListOnly.Observe(target, MutationObserverInit{ChildList: true})
	if childListOnly.matches(target, MutationCharacterData) {
		t.Fatalf("expected a ChildList-only observer not to match a characterData mutation")
	}

	charDataObserver := NewMutationObserver(func([]MutationRecord) {})
	charDataObserver.Observe(target, MutationObserverInit{CharacterData: true})
	if !charDataObserver.matches(target, MutationCharacterData) {
		t.Fatalf("expected a CharacterData observer to match a characterData mutation")
	}
	if charDataObserver.matches(target, MutationChildList) {
		t.Fatalf("expected a CharacterData-only observer not to match a childList mutation")
	}
}

// TestDOMMutationsNotifyObservedTargets covers the production wiring from
// node.go/element.go into the observer subsystem: real AppendChild/
// SetAttribute calls on an observed subtree must produce records, and
// mutations outside the observed scope must not.
func TestDOMMutationsNotifyObservedTargets(t *testing.T) {
	p := NewPage(PageOptions{ID: "obs", Client: nil, Engine: nil})
	container := p.Doc.CreateElement("div")
	outside := p.Doc.CreateElement("section")
	p.Doc.Root().AppendChild(container)
	p.Doc.Root().AppendChild(outside)

	var delivered []MutationRecord
	obs := NewMutationObserver(func(recs []MutationRecord) { delivered = append(delivered, recs...) })
	obs.Observe(container, MutationObserverInit{ChildList: true, Attributes: true, Subtree: true})
	p.mutations.Register(obs)

	child := p.Doc.CreateElement("span")
	container.AppendChild(child)
	child.SetAttribute("data-x", "1")
	outside.SetAttribute("data-y", "2") // out of scope: must not be recorded

	p.mutations.Deliver()

	if len(delivered) != 2 {
		t.Fatalf("expected exactly 2 records (childList + attributes) within the observed subtree, got %d: %v", len(delivered), delivered)
	}
	if delivered[0].Kind != MutationChildList || delivered[0].Target != container {
		t.Fatalf("expected first record to be a childList mutation on container, got %+v", delivered[0])
	}
	if delivered[1].Kind != MutationAttributes || delivered[1].Target != child || delivered[1].AttributeName != "data-x" {
		t.Fatalf("expected second record to be the attribute change on the subtree descendant, got %+v", delivered[1])
	}
}
