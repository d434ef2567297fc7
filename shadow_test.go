package pagecore

import "testing"

// TestAppendChildAssignsSlotDynamically covers the script-driven half of
// spec.md §4.8's slot assignment: "when an element is inserted under a
// shadow host, walk the host's shadow tree to find a <slot>..." — this
// must fire for a plain AppendChild under a Page's Document, not just for
// nodes created by the HTML parser.
func TestAppendChildAssignsSlotDynamically(t *testing.T) {
	p := NewPage(PageOptions{ID: "slots", Client: nil, Engine: nil})
	host := p.Doc.CreateElement("div")
	p.Doc.Root().AppendChild(host)

	root := p.AttachShadowRoot(host)
	defaultSlot := p.Doc.CreateElement("slot")
	namedSlot := p.Doc.CreateElement("slot")
	namedSlot.SetAttribute("name", "title")
	root.AppendChild(defaultSlot)
	root.AppendChild(namedSlot)

	child := p.Doc.CreateElement("span")
	host.AppendChild(child)

	assigned, ok := child.AssignedSlot()
	if !ok || assigned != defaultSlot {
		t.Fatalf("expected child with no slot attribute to assign to the default slot, got %v ok=%v", assigned, ok)
	}

	titled := p.Doc.CreateElement("h1")
	titled.SetAttribute("slot", "title")
	host.AppendChild(titled)

	assigned, ok = titled.AssignedSlot()
	if !ok || assigned != namedSlot {
		t.Fatalf("expected the titled child to assign to the named slot, got %v ok=%v", assigned, ok)
	}
}

// TestSlotAttributeChangeReassigns covers the "on attribute slot... change,
// signal slotchange to both the old and new slots" half of spec.md §4.8.
func TestSlotAttributeChangeReassigns(t *testing.T) {
	p := NewPage(PageOptions{ID: "slots2", Client: nil, Engine: nil})
	host := p.Doc.CreateElement("div")
	p.Doc.Root().AppendChild(host)

	root := p.AttachShadowRoot(host)
	defaultSlot := p.Doc.CreateElement("slot")
	namedSlot := p.Doc.CreateElement("slot")
	namedSlot.SetAttribute("name", "title")
	root.AppendChild(defaultSlot)
	root.AppendChild(namedSlot)

	child := p.Doc.CreateElement("span")
	host.AppendChild(child)
	if assigned, _ := child.AssignedSlot(); assigned != defaultSlot {
		t.Fatalf("expected the child to start on the default slot")
	}

	child.SetAttribute("slot", "title")
	if assigned, ok := child.AssignedSlot(); !ok || assigned != namedSlot {
		t.Fatalf("expected changing the slot attribute to reassign to the named slot, got %v ok=%v", assigned, ok)
	}
}
