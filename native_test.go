package pagecore

import "testing"

type fakeNativeElement struct {
	appended []*Node
	inserted map[*Node]int
	replaced map[*Node]*Node
	removed  []*Node
}

func newFakeNativeElement() *fakeNativeElement {
	return &fakeNativeElement{inserted: map[*Node]int{}, replaced: map[*Node]*Node{}}
}

func (f *fakeNativeElement) AppendChild(child *Node)        { f.appended = append(f.appended, child) }
func (f *fakeNativeElement) PrependChild(child *Node)       { f.appended = append([]*Node{child}, f.appended...) }
func (f *fakeNativeElement) InsertChild(child *Node, i int) { f.inserted[child] = i }
func (f *fakeNativeElement) ReplaceChild(old, new *Node)    { f.replaced[old] = new }
func (f *fakeNativeElement) RemoveChild(child *Node)        { f.removed = append(f.removed, child) }

// TestNativeElementMirrorsChildMutations covers native.go's NativeElement
// contract: every Node mutator that changes a parent's children replays the
// same operation onto whichever native widget the parent has attached.
func TestNativeElementMirrorsChildMutations(t *testing.T) {
	doc := NewDocument()
	parent := NewElement(doc, "html", "div")
	mirror := newFakeNativeElement()
	parent.SetNativeElement(mirror)

	a := NewElement(doc, "html", "span")
	b := NewElement(doc, "html", "span")
	parent.AppendChild(a)
	parent.AppendChild(b)
	if len(mirror.appended) != 2 || mirror.appended[0] != a || mirror.appended[1] != b {
		t.Fatalf("expected both children appended to the mirror in order, got %v", mirror.appended)
	}

	c := NewElement(doc, "html", "span")
	parent.ReplaceChild(c, a)
	if mirror.replaced[a] != c {
		t.Fatalf("expected the mirror to record the replacement, got %v", mirror.replaced)
	}

	parent.RemoveChild(b)
	if len(mirror.removed) != 1 || mirror.removed[0] != b {
		t.Fatalf("expected the mirror to record the removal, got %v", mirror.removed)
	}
}

// TestRemoveEventListenerRunsNativeUnlisten covers native.go's
// NativeEventUnlisteners: a NativeEventBridger's returned cleanup closure
// must run exactly once, when RemoveEventListener unregisters that event
// type, and not before.
func TestRemoveEventListenerRunsNativeUnlisten(t *testing.T) {
	p := NewPage(PageOptions{ID: "native-events", Client: nil, Engine: nil})
	target := p.Doc.CreateElement("button")

	unlistenCalls := 0
	p.SetNativeEventBridge(func(eventType string, n *Node, capture bool) func() {
		return func() { unlistenCalls++ }
	})

	h := NewEventHandler(func(*Event) {})
	p.AddEventListener(target, "click", h)
	if unlistenCalls != 0 {
		t.Fatalf("expected no unlisten call before removal, got %d", unlistenCalls)
	}

	p.RemoveEventListener(target, "click", h)
	if unlistenCalls != 1 {
		t.Fatalf("expected exactly one unlisten call after removal, got %d", unlistenCalls)
	}

	p.RemoveEventListener(target, "click", h)
	if unlistenCalls != 1 {
		t.Fatalf("expected removing an already-removed listener not to re-run unlisten, got %d", unlistenCalls)
	}
}
