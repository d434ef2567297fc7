package pagecore

import (
	"strings"
	"testing"

	"github.com/atdiar/pagecore/internal/jsengine"
	"github.com/atdiar/pagecore/internal/netclient"
)

// TestParseAndSerializeRoundTrip covers spec.md §8's fragment round-trip
// invariant: parsing a fragment under a node and serializing it back
// reproduces the tree modulo whitespace.
func TestParseAndSerializeRoundTrip(t *testing.T) {
	p := NewPage(PageOptions{ID: "rt", Client: netclient.NewFakeClient(), Engine: jsengine.NewStub()})
	container := p.Doc.CreateElement("div")
	p.Doc.Root().AppendChild(container)

	parse := ParseHTMLAsChildren(p, container)
	if err := parse(`<p id="greeting">Hello, <b>world</b>!</p>`); err != nil {
		t.Fatalf("parse fragment: %v", err)
	}

	got := SerializeChildren(container)
	want := `<p id="greeting">Hello, <b>world</b>!</p>`
	if got != want {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, want)
	}
}

// TestParseFragmentDoesNotExecuteScripts covers spec.md §4.3: scripts
// inside a parsed fragment must not execute.
func TestParseFragmentDoesNotExecuteScripts(t *testing.T) {
	stub := jsengine.NewStub()
	p := NewPage(PageOptions{ID: "rt2", Client: netclient.NewFakeClient(), Engine: stub})
	container := p.Doc.CreateElement("div")
	p.Doc.Root().AppendChild(container)

	parse := ParseHTMLAsChildren(p, container)
	if err := parse(`<script>window.x = 1</script>`); err != nil {
		t.Fatalf("parse fragment: %v", err)
	}

	if len(stub.Evaluated) != 0 {
		t.Fatalf("expected no script evaluation from a fragment parse, got %v", stub.Evaluated)
	}
}

func TestSerializeVoidElementHasNoClosingTag(t *testing.T) {
	doc := NewDocument()
	parent := NewElement(doc, "html", "div")
	img := NewElement(doc, "html", "img")
	img.SetAttribute("src", "a.png")
	parent.AppendChild(img)

	got := SerializeChildren(parent)
	if strings.Contains(got, "</img>") {
		t.Fatalf("void element must not have a closing tag: %s", got)
	}
	if got != `<img src="a.png">` {
		t.Fatalf("unexpected serialization: %s", got)
	}
}
