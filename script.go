package pagecore

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/atdiar/pagecore/internal/netclient"
)

// ScriptKind classifies a <script> element's content type, per spec.md
// §3/§4.6.
type ScriptKind uint8

const (
	ScriptClassic ScriptKind = iota
	ScriptModule
	ScriptImportMap
)

// ScriptMode is the execution-ordering class a script is assigned on
// first encounter, per spec.md §4.6: normal | defer | async | import |
// import_async.
type ScriptMode uint8

const (
	ModeNormal ScriptMode = iota
	ModeDefer
	ModeAsync
	ModeImport
	ModeImportAsync
)

// scriptStatus tracks a Script's lifecycle, per spec.md §4.6: pending-
// fetch -> fetching -> fetched(complete=true, status) -> evaluating ->
// evaluated|errored -> disposed.
type scriptStatus uint8

const (
	statusPendingFetch scriptStatus = iota
	statusFetching
	statusFetched
	statusEvaluating
	statusEvaluated
	statusErrored
	statusDisposed
)

// Script is one <script> element's ScriptManager-side bookkeeping.
// Membership in one of the four intrusive lists (normal, deferred, async,
// ready) is via next/prev pointers on the struct itself, per spec.md §3:
// "node link in one of four lists".
type Script struct {
	Kind   ScriptKind
	Mode   ScriptMode
	URL    string // "" for inline scripts
	Inline []byte
	Remote []byte // populated once fetched

	Status   scriptStatus
	Complete bool
	HTTPCode int

	Node *Node // the owning <script> element

	fetchStart time.Time

	dynamicImportCB func(buf []byte, err error)

	next, prev *Script
	inList     *scriptList
}

// scriptList is a minimal intrusive doubly-linked list of *Script, mirroring
// the childList encoding pattern node.go already uses for DOM children.
type scriptList struct {
	head, tail *Script
	name       string
}

func (l *scriptList) pushBack(s *Script) {
	s.inList = l
	s.next, s.prev = nil, l.tail
	if l.tail != nil {
		l.tail.next = s
	} else {
		l.head = s
	}
	l.tail = s
}

func (l *scriptList) remove(s *Script) {
	if s.inList != l {
		return
	}
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		l.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		l.tail = s.prev
	}
	s.next, s.prev, s.inList = nil, nil, nil
}

func (l *scriptList) empty() bool { return l.head == nil }

// ScriptManager fetches, orders, and hands scripts to the JS engine under
// the sequencing rules of spec.md §4.6. Grounded on the teacher's async.go
// WorkQueue for the shape of "accumulate then drain in order", generalized
// from a single FIFO into the four-list dispatch spec.md describes.
type ScriptManager struct {
	page *Page

	normal   *scriptList
	deferred *scriptList
	async    *scriptList
	ready    *scriptList

	modules                map[string]*moduleEntry
	dynamicImportCallbacks map[string][]func(buf []byte, err error)
	importMap              *ImportMap

	buffers *BufferPool

	evaluating bool
	shutdown   bool
}

// NewScriptManager creates an empty manager bound to p.
func NewScriptManager(p *Page) *ScriptManager {
	return &ScriptManager{
		page:                   p,
		normal:                 &scriptList{name: "normal"},
		deferred:               &scriptList{name: "deferred"},
		async:                  &scriptList{name: "async"},
		ready:                  &scriptList{name: "ready"},
		modules:                make(map[string]*moduleEntry),
		dynamicImportCallbacks: make(map[string][]func(buf []byte, err error)),
		importMap:              NewImportMap(),
		buffers:                NewBufferPool(p.config.BufferPoolSize),
	}
}

// AddFromElement derives a script's kind/mode from its attributes and
// queues or evaluates it, per spec.md §4.6's ordered rule list.
// scriptInserted is true when el was inserted by script (document.
// createElement + appendChild) rather than by the parser; spec.md §4.6
// rule 5 uses this to pick the dynamic-insertion default of async over
// the parser's normal default.
func (m *ScriptManager) AddFromElement(el *Node, scriptInserted bool) {
	if m.shutdown {
		return
	}

	if _, nomodule := el.GetAttribute("nomodule"); nomodule {
		return // engine supports modules: rule 1
	}

	typ, _ := el.GetAttribute("type")
	kind, recognized := classifyScriptType(typ)
	if !recognized {
		return // rule 2
	}

	src, hasSrc := el.GetAttribute("src")
	_, isAsync := el.GetAttribute("async")
	_, isDefer := el.GetAttribute("defer")

	s := &Script{Kind: kind, Node: el}

	switch {
	case !hasSrc && kind == ScriptClassic:
		// Rule 3: inline classic script.
		s.Inline = []byte(elementTextContent(el))
		if m.normal.empty() {
			m.evaluateInline(s)
		} else {
			s.Status = statusFetched
			s.Complete = true
			m.normal.pushBack(s)
		}
		return

	case !hasSrc && kind == ScriptModule:
		// Rule 4: inline module -> defer.
		s.Mode = ModeDefer
		s.Inline = []byte(elementTextContent(el))
		s.Status = statusFetched
		s.Complete = true
		m.deferred.pushBack(s)
		return

	case !hasSrc && kind == ScriptImportMap:
		// Rule 4, inline importmap: parsed and installed into the import
		// map right away rather than evaluated as JS; it is not queued on
		// the deferred list.
		m.installImportMapSource([]byte(elementTextContent(el)))
		return

	case hasSrc && isAsync:
		s.URL = src
		s.Mode = ModeAsync
		m.async.pushBack(s)
		m.fetchScriptAsync(s)
		return

	case hasSrc && (isDefer || kind == ScriptModule):
		s.URL = src
		s.Mode = ModeDefer
		m.deferred.pushBack(s)
		m.fetchScriptAsync(s)
		return

	case hasSrc && !scriptInserted:
		// Rule 5, parser-inserted remote with no async/defer: normal
		// (blocking sync fetch).
		s.URL = src
		s.Mode = ModeNormal
		m.normal.pushBack(s)
		m.fetchScriptBlocking(s)
		return

	default:
		// Rule 5, script-inserted remote with no async/defer: defaults to
		// async to match dynamic-insertion semantics.
		s.URL = src
		s.Mode = ModeAsync
		m.async.pushBack(s)
		m.fetchScriptAsync(s)
		return
	}
}

func classifyScriptType(typ string) (ScriptKind, bool) {
	switch typ {
	case "", "text/javascript", "application/javascript", "module-shim":
		return ScriptClassic, true
	case "module":
		return ScriptModule, true
	case "importmap":
		return ScriptImportMap, true
	default:
		return 0, false
	}
}

// elementTextContent concatenates the character data of el's direct Text
// children, the inline-script-source convention.
func elementTextContent(el *Node) string {
	var b bytes.Buffer
	for c := el.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind == KindText {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func (m *ScriptManager) installImportMapSource(src []byte) {
	mappings, err := parseImportMapJSON(src)
	if err != nil {
		logError(m.page.logger, ErrScript, "invalid importmap", "page_id", m.page.ID, "error", err.Error())
		return
	}
	m.importMap.Install(mappings)
}

// fetchScriptAsync issues a non-blocking HTTP GET for s.URL, marking s
// complete on the page's own tick-driven event loop rather than spinning.
func (m *ScriptManager) fetchScriptAsync(s *Script) {
	s.Status = statusFetching
	s.fetchStart = time.Now()
	buf := m.buffers.Get()
	req := &netclient.Request{
		ReqID:        m.page.client.IncrReqID(),
		URL:          s.URL,
		Method:       http.MethodGet,
		Headers:      m.page.client.NewHeaders(),
		ResourceType: netclient.ResourceScript,
		DataCB: func(chunk []byte) {
			buf = append(buf, chunk...)
		},
		HeaderCB: func(status int, _ http.Header, _ string) {
			s.HTTPCode = status
		},
		DoneCB: func() {
			m.onScriptFetchDone(s, buf, nil)
		},
		ErrorCB: func(err error) {
			m.onScriptFetchDone(s, nil, err)
		},
	}
	m.page.client.Request(req)
}

// fetchScriptBlocking implements spec.md §4.6's one deliberate busy-wait:
// "the caller spins in a loop pumping the HTTP client's tick until the
// script completes, then evaluates it in-place."
func (m *ScriptManager) fetchScriptBlocking(s *Script) {
	m.fetchScriptAsync(s)
	for !s.Complete {
		m.page.Tick(50)
	}
	if m.normal.head == s {
		m.normal.remove(s)
		m.evaluateQueued(s)
	}
	m.Evaluate()
}

func (m *ScriptManager) onScriptFetchDone(s *Script, buf []byte, err error) {
	if err != nil || s.HTTPCode < 200 || s.HTTPCode >= 300 {
		s.Status = statusErrored
		s.Complete = true
		m.fireScriptError(s)
		return
	}
	s.Remote = buf
	s.Status = statusFetched
	s.Complete = true

	m.page.performances.Record(PerformanceEntry{
		Name:      s.URL,
		EntryType: "resource",
		StartTime: s.fetchStart,
		Duration:  time.Since(s.fetchStart),
	})

	if s.Mode == ModeAsync {
		m.async.remove(s)
		m.ready.pushBack(s)
	}
	m.Evaluate()
}

func (m *ScriptManager) fireScriptError(s *Script) {
	m.removeFromAllLists(s)
	if s.Node != nil {
		evt := NewEvent("error", false, false, true, nil)
		m.page.Events.Dispatch(s.Node, evt)
	}
}

func (m *ScriptManager) removeFromAllLists(s *Script) {
	m.normal.remove(s)
	m.deferred.remove(s)
	m.async.remove(s)
	m.ready.remove(s)
}

// fetchModule is the static/dynamic import fetch path, sharing the
// module map's dedupe-by-URL semantics (spec.md §4.6).
func (m *ScriptManager) fetchModule(resolvedURL string, entry *moduleEntry) {
	buf := m.buffers.Get()
	req := &netclient.Request{
		ReqID:        m.page.client.IncrReqID(),
		URL:          resolvedURL,
		Method:       http.MethodGet,
		Headers:      m.page.client.NewHeaders(),
		ResourceType: netclient.ResourceScript,
		DataCB: func(chunk []byte) {
			buf = append(buf, chunk...)
		},
		DoneCB: func() {
			entry.state = moduleDone
			entry.buf = buf
			m.flushDynamicImportCallbacks(resolvedURL, entry)
		},
		ErrorCB: func(err error) {
			entry.state = moduleError
			entry.err = err
			m.flushDynamicImportCallbacks(resolvedURL, entry)
		},
	}
	m.page.client.Request(req)
}

// evaluateInline runs a <script> with no src immediately, bypassing the
// normal list entirely, per spec.md §4.6 rule 3.
func (m *ScriptManager) evaluateInline(s *Script) {
	s.Status = statusEvaluating
	m.runScript(s)
	s.Status = statusEvaluated
}

// runScript hands a script's source to the JS engine, tracking
// Document.CurrentScript around the call per spec.md §3.
func (m *ScriptManager) runScript(s *Script) {
	doc := m.page.Doc
	prev := doc.CurrentScript()
	doc.SetCurrentScript(s.Node)
	defer doc.SetCurrentScript(prev)

	source := s.Inline
	if s.URL != "" {
		source = s.Remote
	}

	if m.page.engine == nil {
		return
	}
	if m.page.jsCtx == nil {
		m.page.jsCtx = m.page.engine.NewContext()
	}
	m.page.beginCallArena()

	var err error
	switch s.Kind {
	case ScriptModule:
		err = m.page.jsCtx.Module(true, source, s.URL, true)
	default:
		err = m.page.jsCtx.Eval(source, s.URL)
	}
	m.page.jsCtx.DrainMicrotasks()
	if err != nil {
		s.Status = statusErrored
		logError(m.page.logger, ErrScript, "script evaluation error", "page_id", m.page.ID, "url", s.URL, "error", err.Error())
		if s.Node != nil {
			evt := NewEvent("error", false, false, true, nil)
			m.page.Events.Dispatch(s.Node, evt)
		}
		return
	}
	s.Status = statusEvaluated
}

// Evaluate is the reentrancy-guarded evaluation loop of spec.md §4.6:
// drain ready, then (once parsing's static scripts are flagged done)
// drain normal in list order while the head is complete, then drain
// defer, then signal Page that scripts are complete.
func (m *ScriptManager) Evaluate() {
	if m.evaluating {
		return
	}
	m.evaluating = true
	defer func() { m.evaluating = false }()

	for s := m.ready.head; s != nil; {
		next := s.next
		m.ready.remove(s)
		if s.dynamicImportCB != nil {
			if s.Status == statusErrored {
				s.dynamicImportCB(nil, fmt.Errorf("pagecore: dynamic import failed"))
			} else {
				s.dynamicImportCB(s.Remote, nil)
			}
		} else {
			m.evaluateQueued(s)
		}
		s = next
	}

	if !m.page.staticScriptsDone {
		return
	}

	for m.normal.head != nil && m.normal.head.Complete {
		s := m.normal.head
		m.normal.remove(s)
		m.evaluateQueued(s)
	}

	if !m.normal.empty() {
		return // still waiting on a blocking fetch to complete
	}

	for s := m.deferred.head; s != nil; {
		next := s.next
		if !s.Complete {
			return // defer preserves document order; wait for this one
		}
		m.deferred.remove(s)
		m.evaluateQueued(s)
		s = next
	}

	m.page.ScriptManagerComplete()
}

func (m *ScriptManager) evaluateQueued(s *Script) {
	if s.Status == statusErrored {
		m.fireScriptError(s)
		return
	}
	s.Status = statusEvaluating
	m.runScript(s)
	m.buffers.Put(s.Remote)
}
