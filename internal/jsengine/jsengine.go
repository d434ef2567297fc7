// Package jsengine defines the JS engine contract consumed by the page
// runtime (spec.md §6) and a deterministic Stub implementation used by
// tests and cmd/pagedemo. No V8-class embedding is in scope (spec.md §1
// excludes it); what matters to the core is the *shape* of the contract:
// context lifetime, Eval/Module entry points, microtask draining, and the
// three callbacks the engine calls back into the core with
// (resolveSpecifier, preloadImport, getAsyncImport).
package jsengine

// Context is one JS execution context, scoped to a Page (or a Page's
// current navigation — a fresh Context replaces the old one on
// navigation, the same way the page arena is replaced).
type Context interface {
	// Eval runs a classic script. url is used for stack traces only.
	Eval(source []byte, url string) error

	// Module runs an ES module body. cacheable mirrors spec.md §6's
	// `cacheable` flag on the engine's module() entry point (whether the
	// compiled module may be cached across navigations with the same URL).
	Module(cacheFlag bool, source []byte, url string, cacheable bool) error

	// DrainMicrotasks runs the microtask queue to completion. Called after
	// every Eval/Module, which is when observer deliveries (§4.7) queued
	// through the engine run.
	DrainMicrotasks()

	// Destroy releases the context. Must be idempotent.
	Destroy()
}

// ResolveSpecifierFunc resolves an import specifier against a base URL,
// consulting the import map first (spec.md §4.6's resolveSpecifier).
type ResolveSpecifierFunc func(base, specifier string) (string, error)

// PreloadImportFunc is invoked by the engine for a static import
// (spec.md §4.6's preloadImport): dedupe by URL, fetch async, deposit into
// the module map.
type PreloadImportFunc func(url string)

// WaitForImportFunc blocks (pumping HTTP, per spec.md §5) until the named
// module's entry transitions from loading to done/error, returning its
// buffer or an error.
type WaitForImportFunc func(url string) ([]byte, error)

// ModuleSource wraps a fetched module body for a dynamic import
// continuation (spec.md §4.6's getAsyncImport).
type ModuleSource struct {
	URL  string
	Body []byte
}

// AsyncImportCallback is the continuation a dynamic import registers; the
// core calls it exactly once with either a ModuleSource or an error.
type AsyncImportCallback func(src *ModuleSource, err error)

// GetAsyncImportFunc is invoked by the engine to start a dynamic import
// (spec.md §4.6's getAsyncImport).
type GetAsyncImportFunc func(base, specifier string, cb AsyncImportCallback)

// Engine is the contract the page runtime consumes. Bind* calls let the
// core install the three callbacks the engine invokes for module
// resolution; they are separate from Context because they are
// per-Page (one set of bindings), while Context is per-navigation.
type Engine interface {
	NewContext() Context

	BindResolveSpecifier(fn ResolveSpecifierFunc)
	BindPreloadImport(fn PreloadImportFunc)
	BindGetAsyncImport(fn GetAsyncImportFunc)

	// QueueMutationDelivery, QueueIntersectionDelivery and
	// QueueSlotchangeDelivery schedule the corresponding observer delivery
	// on the engine's microtask queue (spec.md §4.7); QueuePerformanceDelivery
	// is deliberately absent here since performance delivery goes through
	// the low-priority scheduler instead, per spec.md §4.7.
	QueueMutationDelivery(fn func())
	QueueIntersectionDelivery(fn func())
	QueueSlotchangeDelivery(fn func())
}
