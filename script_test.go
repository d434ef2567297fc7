package pagecore

import (
	"testing"

	"github.com/atdiar/pagecore/internal/arena"
	"github.com/atdiar/pagecore/internal/jsengine"
	"github.com/atdiar/pagecore/internal/netclient"
)

func newTestPage(id string, client *netclient.FakeClient, engine *jsengine.Stub) *Page {
	return NewPage(PageOptions{ID: id, Client: client, Engine: engine})
}

func TestClassifyScriptType(t *testing.T) {
	cases := []struct {
		typ        string
		wantKind   ScriptKind
		wantRecog  bool
	}{
		{"", ScriptClassic, true},
		{"text/javascript", ScriptClassic, true},
		{"application/javascript", ScriptClassic, true},
		{"module-shim", ScriptClassic, true},
		{"module", ScriptModule, true},
		{"importmap", ScriptImportMap, true},
		{"text/vbscript", 0, false},
	}
	for _, c := range cases {
		kind, recognized := classifyScriptType(c.typ)
		if recognized != c.wantRecog {
			t.Fatalf("type=%q: recognized=%v want %v", c.typ, recognized, c.wantRecog)
		}
		if recognized && kind != c.wantKind {
			t.Fatalf("type=%q: kind=%v want %v", c.typ, kind, c.wantKind)
		}
	}
}

func TestAddFromElementSkipsNomoduleAndUnrecognizedType(t *testing.T) {
	stub := jsengine.NewStub()
	p := newTestPage("nomod", netclient.NewFakeClient(), stub)

	nomodule := p.Doc.CreateElement("script")
	nomodule.SetAttribute("nomodule", "")
	nomodule.AppendChild(NewText(p.Doc, "window.a = 1"))
	p.Scripts.AddFromElement(nomodule, false)

	unrecognized := p.Doc.CreateElement("script")
	unrecognized.SetAttribute("type", "text/vbscript")
	unrecognized.AppendChild(NewText(p.Doc, "window.b = 1"))
	p.Scripts.AddFromElement(unrecognized, false)

	if len(stub.Evaluated) != 0 {
		t.Fatalf("expected neither script to evaluate, got %v", stub.Evaluated)
	}
}

// TestInlineClassicScriptRunsImmediately is spec.md §8 scenario 2: a single
// inline classic script with no queued normal scripts ahead of it runs
// synchronously, in place, during parsing.
func TestInlineClassicScriptRunsImmediately(t *testing.T) {
	stub := jsengine.NewStub()
	p := newTestPage("inline", netclient.NewFakeClient(), stub)

	el := p.Doc.CreateElement("script")
	el.AppendChild(NewText(p.Doc, "window.greeting = 'hi'"))
	p.Scripts.AddFromElement(el, false)

	if len(stub.Evaluated) != 1 {
		t.Fatalf("expected the inline script to run immediately, got %d evaluations", len(stub.Evaluated))
	}
	if string(stub.Evaluated[0].Source) != "window.greeting = 'hi'" {
		t.Fatalf("unexpected source evaluated: %q", stub.Evaluated[0].Source)
	}
}

// TestDeferredScriptsRunInDocumentOrderDespiteFetchOrder is spec.md §8
// scenario 3: two deferred remote scripts must evaluate in the order they
// appear in the document, even when the second one's fetch completes
// first.
func TestDeferredScriptsRunInDocumentOrderDespiteFetchOrder(t *testing.T) {
	client := netclient.NewFakeClient()
	client.Responses["/first.js"] = netclient.FakeResponse{Body: []byte("first()"), DelayTicks: 3}
	client.Responses["/second.js"] = netclient.FakeResponse{Body: []byte("second()"), DelayTicks: 1}

	stub := jsengine.NewStub()
	p := newTestPage("defer", client, stub)
	p.staticScriptsDone = true

	first := p.Doc.CreateElement("script")
	first.SetAttribute("src", "/first.js")
	first.SetAttribute("defer", "")
	second := p.Doc.CreateElement("script")
	second.SetAttribute("src", "/second.js")
	second.SetAttribute("defer", "")

	p.Scripts.AddFromElement(first, false)
	p.Scripts.AddFromElement(second, false)

	for i := 0; i < 5 && len(stub.Evaluated) < 2; i++ {
		p.Tick(10)
	}

	if len(stub.Evaluated) != 2 {
		t.Fatalf("expected both deferred scripts to evaluate, got %d", len(stub.Evaluated))
	}
	if string(stub.Evaluated[0].Source) != "first()" || string(stub.Evaluated[1].Source) != "second()" {
		t.Fatalf("expected document order [first, second] despite fetch completion order, got %v", stub.Evaluated)
	}
}

// TestAsyncScriptsRunInFetchCompletionOrder is spec.md §8 scenario 4: async
// scripts evaluate in whichever order their fetches complete, independent
// of document order.
func TestAsyncScriptsRunInFetchCompletionOrder(t *testing.T) {
	client := netclient.NewFakeClient()
	client.Responses["/slow.js"] = netclient.FakeResponse{Body: []byte("slow()"), DelayTicks: 3}
	client.Responses["/fast.js"] = netclient.FakeResponse{Body: []byte("fast()"), DelayTicks: 1}

	stub := jsengine.NewStub()
	p := newTestPage("async", client, stub)
	p.staticScriptsDone = true

	slow := p.Doc.CreateElement("script")
	slow.SetAttribute("src", "/slow.js")
	slow.SetAttribute("async", "")
	fast := p.Doc.CreateElement("script")
	fast.SetAttribute("src", "/fast.js")
	fast.SetAttribute("async", "")

	p.Scripts.AddFromElement(slow, false)
	p.Scripts.AddFromElement(fast, false)

	for i := 0; i < 5 && len(stub.Evaluated) < 2; i++ {
		p.Tick(10)
	}

	if len(stub.Evaluated) != 2 {
		t.Fatalf("expected both async scripts to evaluate, got %d", len(stub.Evaluated))
	}
	if string(stub.Evaluated[0].Source) != "fast()" || string(stub.Evaluated[1].Source) != "slow()" {
		t.Fatalf("expected fetch-completion order [fast, slow], got %v", stub.Evaluated)
	}
}

// TestScriptInsertedRemoteDefaultsToAsync covers spec.md §4.6 rule 5's
// dynamic-insertion default.
func TestScriptInsertedRemoteDefaultsToAsync(t *testing.T) {
	client := netclient.NewFakeClient()
	client.Responses["/dyn.js"] = netclient.FakeResponse{Body: []byte("dyn()")}
	stub := jsengine.NewStub()
	p := newTestPage("dyn", client, stub)
	p.staticScriptsDone = true

	el := p.Doc.CreateElement("script")
	el.SetAttribute("src", "/dyn.js")
	p.Scripts.AddFromElement(el, true)

	if p.Scripts.async.empty() {
		t.Fatalf("expected a script-inserted remote script with no async/defer to default into the async list")
	}
}

// TestQueuedNavigationPriorityScriptBeatsAnchor covers spec.md §4.5's
// form > script > anchor queued-navigation priority rule.
func TestQueuedNavigationPriorityScriptBeatsAnchor(t *testing.T) {
	p := newTestPage("nav", netclient.NewFakeClient(), jsengine.NewStub())

	p.QueueNavigation("/from-anchor", navPriorityAnchor)
	p.QueueNavigation("/from-script", navPriorityScript)

	url, ok := p.TakeQueuedNavigation()
	if !ok || url != "/from-script" {
		t.Fatalf("expected the script-initiated navigation to win over the anchor, got %q ok=%v", url, ok)
	}
}

func TestQueuedNavigationFormBeatsScript(t *testing.T) {
	p := newTestPage("nav2", netclient.NewFakeClient(), jsengine.NewStub())

	p.QueueNavigation("/from-script", navPriorityScript)
	p.QueueNavigation("/from-form", navPriorityForm)

	url, ok := p.TakeQueuedNavigation()
	if !ok || url != "/from-form" {
		t.Fatalf("expected the form-initiated navigation to win over the script, got %q ok=%v", url, ok)
	}
}

func TestQueuedNavigationLowerPriorityDoesNotOverride(t *testing.T) {
	p := newTestPage("nav3", netclient.NewFakeClient(), jsengine.NewStub())

	p.QueueNavigation("/from-form", navPriorityForm)
	p.QueueNavigation("/from-anchor", navPriorityAnchor)

	url, ok := p.TakeQueuedNavigation()
	if !ok || url != "/from-form" {
		t.Fatalf("expected the already-queued form navigation to survive a lower-priority anchor request, got %q ok=%v", url, ok)
	}
}

// TestInlineScriptEvaluationAllocatesCallArena covers spec.md §5's call
// arena: one JS-to-native call gets a fresh scratch arena, reset on the
// next invocation. An inline classic script is evaluated through
// runScript, the runtime's single JS-engine entry point.
func TestInlineScriptEvaluationAllocatesCallArena(t *testing.T) {
	stub := jsengine.NewStub()
	p := newTestPage("arena", netclient.NewFakeClient(), stub)

	el := p.Doc.CreateElement("script")
	el.AppendChild(NewText(p.Doc, "window.x = 1"))
	p.Scripts.AddFromElement(el, false)

	if p.callArena == nil {
		t.Fatalf("expected a call arena to have been allocated after inline script evaluation")
	}
	if p.callArena.Kind() != arena.KindCall {
		t.Fatalf("expected the allocated arena to be KindCall, got %v", p.callArena.Kind())
	}
	if len(stub.Evaluated) != 1 {
		t.Fatalf("expected exactly one evaluation, got %d", len(stub.Evaluated))
	}
}

