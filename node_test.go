package pagecore

import "testing"

func TestChildListStateTransitions(t *testing.T) {
	doc := NewDocument()
	parent := NewElement(doc, "html", "div")

	if parent.HasChildren() {
		t.Fatalf("fresh element must start with no children")
	}

	a := NewText(doc, "a")
	if err := parent.AppendChild(a); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if parent.childState != childrenOne {
		t.Fatalf("expected childrenOne after first append, got %v", parent.childState)
	}
	if parent.FirstChild() != a || parent.LastChild() != a {
		t.Fatalf("single child must be both first and last")
	}

	b := NewText(doc, "b")
	if err := parent.AppendChild(b); err != nil {
		t.Fatalf("append b: %v", err)
	}
	if parent.childState != childrenList {
		t.Fatalf("expected promotion to childrenList after second child, got %v", parent.childState)
	}
	if parent.FirstChild() != a || parent.LastChild() != b {
		t.Fatalf("order not preserved: first=%v last=%v", parent.FirstChild(), parent.LastChild())
	}
	if a.NextSibling() != b || b.PrevSibling() != a {
		t.Fatalf("sibling links broken")
	}

	if err := parent.RemoveChild(a); err != nil {
		t.Fatalf("remove a: %v", err)
	}
	if parent.childState != childrenOne {
		t.Fatalf("expected demotion back to childrenOne after removing down to 1 child, got %v", parent.childState)
	}
	if parent.FirstChild() != b {
		t.Fatalf("remaining child should be b, got %v", parent.FirstChild())
	}
	if a.Parent() != nil {
		t.Fatalf("removed child must have nil parent")
	}

	if err := parent.RemoveChild(b); err != nil {
		t.Fatalf("remove b: %v", err)
	}
	if parent.HasChildren() {
		t.Fatalf("expected no children after removing the last one")
	}
}

func TestAppendChildRejectsCycles(t *testing.T) {
	doc := NewDocument()
	grandparent := NewElement(doc, "html", "div")
	parent := NewElement(doc, "html", "span")
	if err := grandparent.AppendChild(parent); err != nil {
		t.Fatalf("append parent: %v", err)
	}

	if err := parent.AppendChild(parent); err == nil {
		t.Fatalf("expected error appending a node to itself")
	}
	if err := parent.AppendChild(grandparent); err == nil {
		t.Fatalf("expected error appending an ancestor as a child")
	}
}

func TestInsertBeforeAndReplaceChild(t *testing.T) {
	doc := NewDocument()
	parent := NewElement(doc, "html", "ul")
	first := NewElement(doc, "html", "li")
	second := NewElement(doc, "html", "li")
	parent.AppendChild(first)
	parent.AppendChild(second)

	middle := NewElement(doc, "html", "li")
	if err := parent.InsertBefore(middle, second); err != nil {
		t.Fatalf("insert before: %v", err)
	}
	got := parent.Children()
	if len(got) != 3 || got[0] != first || got[1] != middle || got[2] != second {
		t.Fatalf("unexpected child order after InsertBefore: %v", got)
	}

	replacement := NewElement(doc, "html", "li")
	if err := parent.ReplaceChild(replacement, middle); err != nil {
		t.Fatalf("replace child: %v", err)
	}
	got = parent.Children()
	if len(got) != 3 || got[1] != replacement {
		t.Fatalf("unexpected child order after ReplaceChild: %v", got)
	}
	if middle.Parent() != nil {
		t.Fatalf("replaced node must be detached")
	}
}

// TestPrecedesIsDocumentOrder asserts the monotonic seq counter gives every
// node a total document-order position from creation time, independent of
// tree insertion, per SPEC_FULL.md §11.1's id-map collision resolution.
func TestPrecedesIsDocumentOrder(t *testing.T) {
	doc := NewDocument()
	first := NewElement(doc, "html", "div")
	second := NewElement(doc, "html", "span")

	if !first.Precedes(second) {
		t.Fatalf("expected first-created node to precede a later one")
	}
	if second.Precedes(first) {
		t.Fatalf("precedes must not be symmetric")
	}

	// Insertion order into the tree does not change creation order.
	parent := NewElement(doc, "html", "ul")
	parent.AppendChild(second)
	parent.AppendChild(first)
	if !first.Precedes(second) {
		t.Fatalf("Precedes must reflect creation order, not tree position")
	}
}
