package pagecore

import (
	"context"
	"testing"

	"github.com/atdiar/pagecore/internal/jsengine"
	"github.com/atdiar/pagecore/internal/netclient"
)

// TestIntersectionCheckRunsOnDOMMutation covers spec.md §4.7's "Checks
// happen whenever the DOM version increments and no check is already
// scheduled": setting an attribute bumps Document.domVersion and must drive
// an IntersectionObserver callback once the computed state changes.
func TestIntersectionCheckRunsOnDOMMutation(t *testing.T) {
	p := NewPage(PageOptions{ID: "ix", Client: nil, Engine: nil})
	target := p.Doc.CreateElement("div")
	p.Doc.Root().AppendChild(target)

	seen := false
	p.intersections = NewIntersectionQueue(func(n *Node) IntersectionEntry {
		return IntersectionEntry{Target: n, IsIntersecting: n == target, Ratio: 1}
	})
	obs := NewIntersectionObserver(func(entries []IntersectionEntry) { seen = true })
	obs.Observe(target)
	p.intersections.Register(obs)

	before := p.Doc.DOMVersion()
	target.SetAttribute("data-x", "1")

	if p.Doc.DOMVersion() != before+1 {
		t.Fatalf("expected DOMVersion to increment once per mutation, got %d -> %d", before, p.Doc.DOMVersion())
	}
	if !seen {
		t.Fatalf("expected the intersection observer to have been delivered to after a DOM mutation")
	}
}

// TestPerformanceEntriesRecordedOnNavigationMilestones covers spec.md
// §4.7's performance-entry buffer: DOMContentLoaded and load each append a
// navigation-typed entry, delivered through the low-priority scheduler
// rather than the JS engine's microtask queue.
func TestPerformanceEntriesRecordedOnNavigationMilestones(t *testing.T) {
	client := netclient.NewFakeClient()
	p := newTestPage("perf", client, jsengine.NewStub())

	var delivered []PerformanceEntry
	obs := NewPerformanceObserver(func(entries []PerformanceEntry) {
		delivered = append(delivered, entries...)
	}, []string{"navigation"})
	p.performances.Register(obs)

	p.Navigate(context.Background(), "about:blank", NavigateOptions{})
	p.Tick(10) // drain the low-priority delivery task

	if len(delivered) != 2 {
		t.Fatalf("expected domContentLoadedEventEnd and loadEventEnd entries, got %d: %v", len(delivered), delivered)
	}
	if delivered[0].Name != "domContentLoadedEventEnd" || delivered[1].Name != "loadEventEnd" {
		t.Fatalf("unexpected entry names/order: %v", delivered)
	}
	if len(p.performances.Entries()) != 2 {
		t.Fatalf("expected getEntries() to retain both buffered entries")
	}
}

// TestPerformanceEntryRecordedOnScriptFetch covers the resource-timing
// supplement: a remote script's fetch completion records a "resource"
// entry named after the script's URL.
func TestPerformanceEntryRecordedOnScriptFetch(t *testing.T) {
	client := netclient.NewFakeClient()
	const pageURL = "http://example.test/page"
	const scriptURL = "http://example.test/a.js"
	client.Responses[pageURL] = netclient.FakeResponse{
		Body: []byte(`<script src="` + scriptURL + `"></script>`),
	}
	client.Responses[scriptURL] = netclient.FakeResponse{Body: []byte(`1`)}

	p := newTestPage("perf-script", client, jsengine.NewStub())

	var delivered []PerformanceEntry
	obs := NewPerformanceObserver(func(entries []PerformanceEntry) {
		delivered = append(delivered, entries...)
	}, []string{"resource"})
	p.performances.Register(obs)

	p.Navigate(context.Background(), pageURL, NavigateOptions{})
	for i := 0; i < 5 && p.PendingLoads() != 0; i++ {
		p.Tick(10)
	}

	found := false
	for _, e := range delivered {
		if e.Name == scriptURL && e.EntryType == "resource" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a resource entry for %s, got %v", scriptURL, delivered)
	}
}
