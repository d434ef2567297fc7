package pagecore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atdiar/pagecore/internal/arena"
	"github.com/atdiar/pagecore/internal/htmldriver"
	"github.com/atdiar/pagecore/internal/jsengine"
	"github.com/atdiar/pagecore/internal/netclient"
	"github.com/atdiar/pagecore/internal/notify"
	"github.com/atdiar/pagecore/internal/scheduler"
)

// LoadState is Page's top-level state machine, per spec.md §4.5:
// waiting -> parsing -> load -> complete. Distinct from Document.ReadyState
// (loading/interactive/complete): readyState is the JS-visible value,
// LoadState is the orchestrator's own driving state, and the two advance
// together but are not the same enum (readyState has no "waiting").
type LoadState uint8

const (
	LoadWaiting LoadState = iota
	LoadParsing
	LoadLoad
	LoadComplete
)

func (s LoadState) String() string {
	switch s {
	case LoadWaiting:
		return "waiting"
	case LoadParsing:
		return "parsing"
	case LoadLoad:
		return "load"
	case LoadComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Window stands in for the window global: mostly an event target (the
// window `load` event, spec.md §4.5) plus a back-reference to its Page.
// There is no separate Window node kind; it hosts its own listener store
// the same way Document does (node.go's nonElemListeners), via a bare
// Node whose Kind is never inspected beyond that.
type Window struct {
	node *Node
	page *Page
}

func newWindow(p *Page) *Window {
	return &Window{node: &Node{Kind: KindDocumentFragment}, page: p}
}

// Node returns the Node used as this window's event target.
func (w *Window) Node() *Node { return w.node }

// Page returns the owning Page.
func (w *Window) Page() *Page { return w.page }

// queuedNavigation records a navigation requested by script mid-execution,
// applied after control returns to the host loop. Priority resolves
// competing requests per spec.md §4.5: form > script > anchor; ties within
// a class go to the last writer.
type queuedNavigation struct {
	url      string
	priority navPriority
}

type navPriority uint8

const (
	navPriorityAnchor navPriority = iota
	navPriorityScript
	navPriorityForm
)

// Page is the frame/document container: spec.md §3/§4.5's orchestrator.
// One Page drives one Document and may own child Pages for iframes, which
// share the parent's arena pool but track their own load state.
//
// Grounded on atdiar-particleui's top-level "ui" package style (flat
// struct, function-valued callback fields for native bridging) but this
// struct itself has no teacher analogue — particleui has no navigation or
// script-manager orchestrator — so its shape follows spec.md §3 directly.
type Page struct {
	ID       string
	Parent   *Page
	Children []*Page

	Window *Window
	Doc    *Document

	Scripts *ScriptManager
	Sched   *scheduler.Scheduler
	Events  *EventManager

	pageArena *arena.Arena
	callArena *arena.Arena
	arenaPool *arena.Pool

	client netclient.Client
	reqID  uint64

	queuedNav *queuedNavigation

	pendingLoads int

	parseMode       htmldriver.Mode
	parsing         bool
	staticScriptsDone bool
	activeDriver    *htmldriver.Driver

	loadState LoadState

	networkIdle       *IdleNotification
	networkAlmostIdle *IdleNotification
	concurrentTransfers int

	documentIsLoadedFired   bool
	documentIsCompleteFired bool
	scriptsPendingLoadDone  bool
	pendingElementLoads     []*Node

	mutations     *MutationDeliveryQueue
	intersections *IntersectionQueue
	slotchanges   *SlotchangeQueue
	performances  *PerformanceQueue

	engine jsengine.Engine
	jsCtx  jsengine.Context

	bus    *notify.Bus
	config Config
	logger *slog.Logger

	customElements   map[string]*CustomElementDefinition
	upgradingElement *Node

	nativeDispatch    NativeDispatcher
	nativeEventBridge NativeEventBridger
}

// AddEventListener registers h on n for typ, mirroring the registration to
// the bridged native layer if one is wired (native.go). A non-nil unlisten
// closure the bridger returns is kept and run when RemoveEventListener
// later unregisters typ.
func (p *Page) AddEventListener(n *Node, typ string, h *EventHandler) {
	p.Events.AddEventListener(n, typ, h)
	if p.nativeEventBridge != nil {
		if unlisten := p.nativeEventBridge(typ, n, h.Capture); unlisten != nil {
			n.nativeUnlisteners().Add(typ, unlisten)
		}
	}
}

// RemoveEventListener unregisters h on n for typ, unwinding any native
// bridge registration recorded for typ along with it.
func (p *Page) RemoveEventListener(n *Node, typ string, h *EventHandler) {
	p.Events.RemoveEventListener(n, typ, h)
	if u, ok := n.nativeUnlistenersOrNil(); ok {
		u.Apply(typ)
	}
}

// PageOptions configures NewPage. A nil Client, Bus or Logger falls back
// to a default (netclient.NewStdClient, a fresh notify.Bus, log/slog's
// default logger). A nil Engine stays nil: scripts are then not evaluated
// and queued microtasks run immediately.
type PageOptions struct {
	ID     string
	Parent *Page
	Config Config
	Client netclient.Client
	Engine jsengine.Engine
	Bus    *notify.Bus
	Logger *slog.Logger
}

// NewPage constructs a Page with a freshly allocated Document and the
// full set of wired subsystems.
func NewPage(opts PageOptions) *Page {
	cfg := opts.Config.withDefaults()
	pool := arena.Default

	p := &Page{
		ID:        opts.ID,
		Parent:    opts.Parent,
		arenaPool: pool,
		client:    opts.Client,
		engine:    opts.Engine,
		bus:       opts.Bus,
		config:    cfg,
		logger:    opts.Logger,
		customElements: make(map[string]*CustomElementDefinition),
	}
	if p.bus == nil {
		p.bus = notify.NewBus()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.client == nil {
		p.client = netclient.NewStdClient()
	}

	p.Window = newWindow(p)
	p.Sched = scheduler.New()
	p.Events = NewEventManager()
	p.pendingLoads = 1 // per spec.md §4.5: "Initialised to 1 (for scripts)"

	p.networkIdle = NewIdleNotification("idle", cfg.NetworkIdleThreshold, nil)
	p.networkAlmostIdle = NewIdleNotification("almost_idle", cfg.NetworkIdleThreshold, nil)

	p.resetDocument()

	if opts.Parent != nil {
		opts.Parent.Children = append(opts.Parent.Children, p)
	}
	return p
}

// resetDocument replaces the Page's Document, arenas, and per-navigation
// subsystems with fresh ones. Called on construction and on every
// navigation (spec.md §3: "page arena... freed on next navigation").
func (p *Page) resetDocument() {
	if p.pageArena != nil {
		p.arenaPool.Release(p.pageArena)
	}
	p.pageArena = p.arenaPool.Get(arena.KindPage, p.ID)

	p.Doc = NewDocument()
	p.Doc.page = p
	p.pageArena.Alloc(p.Doc)

	p.Scripts = NewScriptManager(p)
	if p.engine != nil {
		p.engine.BindResolveSpecifier(p.Scripts.resolveSpecifier)
		p.engine.BindPreloadImport(func(url string) { p.Scripts.preloadImport(url) })
		p.engine.BindGetAsyncImport(func(base, specifier string, cb jsengine.AsyncImportCallback) {
			resolved, err := p.Scripts.resolveSpecifier(base, specifier)
			if err != nil {
				cb(nil, err)
				return
			}
			p.Scripts.getAsyncImport(resolved, func(buf []byte, err error) {
				if err != nil {
					cb(nil, err)
					return
				}
				cb(&jsengine.ModuleSource{URL: resolved, Body: buf}, nil)
			})
		})
	}

	p.mutations = NewMutationDeliveryQueue(p.queueMicrotask, func(msg string) {
		logError(p.logger, ErrInternal, msg, "page_id", p.ID)
	})
	p.intersections = NewIntersectionQueue(func(*Node) IntersectionEntry {
		return IntersectionEntry{}
	})
	p.slotchanges = NewSlotchangeQueue(p.queueMicrotask)
	prevPerformances := p.performances
	p.performances = NewPerformanceQueue(p.Sched)
	if prevPerformances != nil {
		// Observers registered on the Page keep receiving entries across
		// navigations; only the entry buffer starts empty.
		p.performances.observers = prevPerformances.observers
	}

	p.parsing = false
	p.activeDriver = nil
	p.staticScriptsDone = false
	p.loadState = LoadWaiting
	p.documentIsLoadedFired = false
	p.documentIsCompleteFired = false
	p.scriptsPendingLoadDone = false
	p.pendingLoads = 1 // the scripts' slot, given back once per document
	p.pendingElementLoads = nil
	p.networkIdle.Reset()
	p.networkAlmostIdle.Reset()
}

// beginCallArena resets (or allocates) the call-scratch arena for one
// JS-to-native invocation, per spec.md §5's call-arena lifetime.
func (p *Page) beginCallArena() *arena.Arena {
	if p.callArena != nil {
		p.arenaPool.Release(p.callArena)
	}
	p.callArena = p.arenaPool.Get(arena.KindCall, p.ID+":call")
	return p.callArena
}

// queueMicrotask schedules fn to run via the JS engine's microtask queue
// if one is bound, else immediately (useful when no engine is attached,
// e.g. headless DOM-only use).
func (p *Page) queueMicrotask(fn func()) {
	if p.engine == nil || p.jsCtx == nil {
		fn()
		return
	}
	p.engine.QueueMutationDelivery(fn)
}

// emit publishes a notification to the Page's bus, stamping PageID and
// Timestamp.
func (p *Page) emit(kind notify.Kind, reqID uint64, url string, payload any) {
	p.bus.Emit(notify.Event{
		Kind:               kind,
		PageID:             p.ID,
		ReqID:              reqID,
		URL:                url,
		TimestampUnixMilli: time.Now().UnixMilli(),
		Payload:            payload,
	})
}

// Bus returns the Page's notification bus, so embedders can Subscribe.
func (p *Page) Bus() *notify.Bus { return p.bus }

// Tick drives the cooperative loop one step: pump the HTTP client for up
// to budgetMS, run due scheduler tasks, and report milliseconds until the
// next scheduled task (nil if nothing is pending). This is the only
// non-busy-wait entry point into time progressing; see ScriptManager's
// blocking sync-fetch path for the one deliberate busy-wait (spec.md §5).
func (p *Page) Tick(budgetMS int64) *int64 {
	p.client.Tick(int(budgetMS))
	p.updateNetworkIdle()
	return p.Sched.Run()
}

// updateNetworkIdle drives both IdleNotification trackers off the client's
// live outstanding-request count, per spec.md §4.5: almost-idle holds at
// <=2 concurrent transfers, idle holds at 0; each fires its notification
// once its condition has held continuously for the configured threshold.
func (p *Page) updateNetworkIdle() {
	p.concurrentTransfers = p.client.Outstanding()
	if p.networkAlmostIdle.Update(p.concurrentTransfers <= 2) {
		p.emit(notify.PageNetworkAlmostIdle, p.reqID, p.Doc.Location().URL, nil)
	}
	if p.networkIdle.Update(p.concurrentTransfers == 0) {
		p.emit(notify.PageNetworkIdle, p.reqID, p.Doc.Location().URL, nil)
	}
}

// IncPendingLoads increments the pending-loads counter (spec.md §4.5: one
// per outstanding iframe or subloader).
func (p *Page) IncPendingLoads() { p.pendingLoads++ }

// DecPendingLoads decrements the pending-loads counter and, if it reaches
// zero, fires documentIsComplete.
func (p *Page) DecPendingLoads() {
	if p.pendingLoads == 0 {
		logError(p.logger, ErrInternal, "pending loads decremented below zero", "page_id", p.ID)
		return
	}
	p.pendingLoads--
	if p.pendingLoads == 0 {
		p.documentIsComplete()
	}
}

// PendingLoads reports the current pending-loads counter value.
func (p *Page) PendingLoads() int { return p.pendingLoads }

// QueueNavigation records a script- or UI-initiated navigation request,
// resolving priority against any already-queued request per spec.md
// §4.5's form > script > anchor rule (ties: last writer wins).
func (p *Page) QueueNavigation(url string, prio navPriority) {
	if p.queuedNav != nil && p.queuedNav.priority > prio {
		return
	}
	p.queuedNav = &queuedNavigation{url: url, priority: prio}
}

// TakeQueuedNavigation returns and clears any pending queued navigation.
func (p *Page) TakeQueuedNavigation() (string, bool) {
	if p.queuedNav == nil {
		return "", false
	}
	url := p.queuedNav.url
	p.queuedNav = nil
	return url, true
}

// RunQueuedNavigation applies any queued navigation, called by the host
// after control returns from script execution (spec.md §4.5: "it is
// recorded... and executed after control returns to the host").
func (p *Page) RunQueuedNavigation(ctx context.Context) {
	url, ok := p.TakeQueuedNavigation()
	if !ok {
		return
	}
	p.Navigate(ctx, url, NavigateOptions{})
}

func (p *Page) String() string {
	return fmt.Sprintf("Page(id=%s, loadState=%s, pendingLoads=%d)", p.ID, p.loadState, p.pendingLoads)
}
