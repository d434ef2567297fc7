package jsengine

// Stub is a deterministic, dependency-free Engine used by tests and
// cmd/pagedemo. It records every Eval/Module call and runs queued
// microtasks synchronously and in FIFO order instead of driving a real VM.
// Its callback-registration style (function-typed fields assigned once by
// the host) is grounded on atdiar-particleui/native.go's
// NativeDispatcher/NativeEventBridger package-level callback vars.
type Stub struct {
	Evaluated []StubRecord

	resolveSpecifier ResolveSpecifierFunc
	preloadImport    PreloadImportFunc
	getAsyncImport   GetAsyncImportFunc

	mutationQueue     []func()
	intersectionQueue []func()
	slotchangeQueue   []func()

	// OnEval, if set, is invoked for every classic script/module body
	// instead of just recording it, letting tests simulate a script
	// mutating the DOM (e.g. `window.x=1`).
	OnEval func(source []byte, url string, isModule bool) error
}

// StubRecord is one logged evaluation.
type StubRecord struct {
	Source   []byte
	URL      string
	IsModule bool
}

// NewStub creates an empty Stub engine.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) NewContext() Context { return &stubContext{engine: s} }

func (s *Stub) BindResolveSpecifier(fn ResolveSpecifierFunc) { s.resolveSpecifier = fn }
func (s *Stub) BindPreloadImport(fn PreloadImportFunc)       { s.preloadImport = fn }
func (s *Stub) BindGetAsyncImport(fn GetAsyncImportFunc)     { s.getAsyncImport = fn }

func (s *Stub) QueueMutationDelivery(fn func())     { s.mutationQueue = append(s.mutationQueue, fn) }
func (s *Stub) QueueIntersectionDelivery(fn func()) { s.intersectionQueue = append(s.intersectionQueue, fn) }
func (s *Stub) QueueSlotchangeDelivery(fn func())   { s.slotchangeQueue = append(s.slotchangeQueue, fn) }

// DrainAllQueues runs every queued observer-delivery callback the way the
// real engine's microtask queue would, FIFO, allowing callbacks queued
// during drainage to run in the same drain (bounded by the reentrancy
// depth the mutation observer itself enforces).
func (s *Stub) DrainAllQueues() {
	drain := func(q *[]func()) {
		for len(*q) > 0 {
			fn := (*q)[0]
			*q = (*q)[1:]
			fn()
		}
	}
	drain(&s.mutationQueue)
	drain(&s.intersectionQueue)
	drain(&s.slotchangeQueue)
}

// ResolveSpecifier exposes the bound resolver to tests wiring a Stub
// directly, without needing a stubContext.
func (s *Stub) ResolveSpecifier(base, specifier string) (string, error) {
	if s.resolveSpecifier == nil {
		return specifier, nil
	}
	return s.resolveSpecifier(base, specifier)
}

type stubContext struct {
	engine *Stub
}

func (c *stubContext) Eval(source []byte, url string) error {
	c.engine.Evaluated = append(c.engine.Evaluated, StubRecord{Source: source, URL: url})
	if c.engine.OnEval != nil {
		return c.engine.OnEval(source, url, false)
	}
	return nil
}

func (c *stubContext) Module(cacheFlag bool, source []byte, url string, cacheable bool) error {
	c.engine.Evaluated = append(c.engine.Evaluated, StubRecord{Source: source, URL: url, IsModule: true})
	if c.engine.OnEval != nil {
		return c.engine.OnEval(source, url, true)
	}
	return nil
}

func (c *stubContext) DrainMicrotasks() { c.engine.DrainAllQueues() }

func (c *stubContext) Destroy() {}

var _ Engine = (*Stub)(nil)
