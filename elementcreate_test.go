package pagecore

import (
	"testing"

	"github.com/atdiar/pagecore/internal/htmldriver"
)

// TestUpgradeElementReplaysObservedAttributes covers elementcreate.go's
// upgrade sequence (spec.md §4.4): attributeChangedCallback must fire once
// per already-present Observed attribute, right after the constructor runs.
func TestUpgradeElementReplaysObservedAttributes(t *testing.T) {
	p := NewPage(PageOptions{ID: "custom-els", Client: nil, Engine: nil})

	var calls []string
	p.DefineCustomElement(&CustomElementDefinition{
		Name:     "my-widget",
		Observed: []string{"label"},
		AttributeChanged: func(el *Node, name, oldVal, newVal string) {
			calls = append(calls, name+":"+oldVal+"->"+newVal)
		},
	})

	el := p.Doc.CreateElementNS("html", "my-widget", []htmldriver.Attr{{Name: "label", Value: "one"}})

	if len(calls) != 1 || calls[0] != "label:->one" {
		t.Fatalf("expected exactly one initial replay call, got %v", calls)
	}

	el.SetAttribute("label", "two")
	if len(calls) != 2 || calls[1] != "label:one->two" {
		t.Fatalf("expected a follow-up call on SetAttribute, got %v", calls)
	}

	el.SetAttribute("title", "unobserved")
	if len(calls) != 2 {
		t.Fatalf("expected no callback for an unobserved attribute, got %v", calls)
	}
}
