package pagecore

import "testing"

// TestGetElementByIDEarliestWins covers spec.md §4.8's collision rule: when
// multiple elements share an id, getElementById resolves to whichever one
// occurs earliest in document order.
func TestGetElementByIDEarliestWins(t *testing.T) {
	doc := NewDocument()
	first := NewElement(doc, "html", "div")
	second := NewElement(doc, "html", "div")

	doc.RegisterID("dup", second)
	doc.RegisterID("dup", first)

	got, ok := doc.GetElementByID("dup")
	if !ok {
		t.Fatalf("expected a match")
	}
	if got != first {
		t.Fatalf("expected the earlier-created element to win, got %v want %v", got, first)
	}
}

func TestUnregisterIDFallsBackToNextCandidate(t *testing.T) {
	doc := NewDocument()
	first := NewElement(doc, "html", "div")
	second := NewElement(doc, "html", "div")
	doc.RegisterID("dup", first)
	doc.RegisterID("dup", second)

	doc.UnregisterID("dup", first)

	got, ok := doc.GetElementByID("dup")
	if !ok || got != second {
		t.Fatalf("expected fallback to remaining candidate, got %v ok=%v", got, ok)
	}

	doc.UnregisterID("dup", second)
	if _, ok := doc.GetElementByID("dup"); ok {
		t.Fatalf("expected no match once every candidate is unregistered")
	}
}

func TestRegisterIDIsIdempotent(t *testing.T) {
	doc := NewDocument()
	el := NewElement(doc, "html", "div")
	doc.RegisterID("x", el)
	doc.RegisterID("x", el)

	if got := len(doc.ids.byID["x"]); got != 1 {
		t.Fatalf("expected exactly one candidate after redundant register, got %d", got)
	}
}

// TestSetAttributeIDRegistersDynamically covers the script-driven half of
// spec.md §4.8's id map: an element created and id'd outside the parser
// (document.createElement + setAttribute) must still be resolvable via
// getElementById, and changing or removing the id must update the map.
func TestSetAttributeIDRegistersDynamically(t *testing.T) {
	doc := NewDocument()
	el := NewElement(doc, "html", "div")

	el.SetAttribute("id", "a")
	if got, ok := doc.GetElementByID("a"); !ok || got != el {
		t.Fatalf("expected dynamic SetAttribute(id) to register the element, got %v ok=%v", got, ok)
	}

	el.SetAttribute("id", "b")
	if _, ok := doc.GetElementByID("a"); ok {
		t.Fatalf("expected the old id to be unregistered after it changed")
	}
	if got, ok := doc.GetElementByID("b"); !ok || got != el {
		t.Fatalf("expected the new id to resolve to the element, got %v ok=%v", got, ok)
	}

	el.RemoveAttribute("id")
	if _, ok := doc.GetElementByID("b"); ok {
		t.Fatalf("expected RemoveAttribute(id) to unregister the element")
	}
}
