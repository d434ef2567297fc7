// Package netclient defines the HTTP client contract consumed by the page
// runtime (spec.md §6) and a concrete net/http-backed implementation. The
// core never talks to sockets directly: Page and ScriptManager issue
// Request calls and drive outstanding transfers forward with Tick, which
// polls for progress and invokes the header/data/done/error callbacks
// synchronously on the caller's goroutine — preserving the single-threaded
// cooperative model of spec.md §5.
package netclient

import (
	"context"
	"net/http"
)

// ResourceType classifies a request the way spec.md's Page/ScriptManager
// care about it (document navigation vs script fetch vs other).
type ResourceType string

const (
	ResourceDocument ResourceType = "document"
	ResourceScript   ResourceType = "script"
	ResourceOther    ResourceType = "other"
)

// Request describes one outbound HTTP request plus the callbacks the
// client invokes as it progresses. All callbacks run on the goroutine that
// calls Tick — never concurrently, matching the single-threaded page
// model.
type Request struct {
	ReqID      uint64
	URL        string
	Method     string
	Headers    http.Header
	Body       []byte
	CookieJar  http.CookieJar
	ResourceType ResourceType
	Ctx        context.Context

	StartCB  func()
	HeaderCB func(status int, headers http.Header, finalURL string)
	DataCB   func(chunk []byte)
	DoneCB   func()
	ErrorCB  func(err error)
}

// TickResult reports what happened during one Tick call.
type TickResult int

const (
	TickTimeout TickResult = iota
	TickProgress
)

// Client is the contract Page and ScriptManager consume. It intentionally
// mirrors spec.md §6's shape (`request/tick/abort/newHeaders/nextReqId`)
// rather than a generic round-tripper, since the core needs streaming
// header/data/done/error callbacks, not a single synchronous Response.
type Client interface {
	// Request issues req. It must not block; progress is driven by Tick.
	Request(req *Request)

	// Tick advances all in-flight requests by up to budgetMS of work and
	// returns whether any progress was made. The page's wait loops (main
	// navigation wait, synchronous <script src> fetch — spec.md §5's only
	// two suspension points) call this repeatedly until their condition is
	// satisfied.
	Tick(budgetMS int) TickResult

	// Abort cancels every in-flight request for the given ReqID, or all
	// requests if reqID is 0. Used before issuing a superseding navigation
	// (spec.md §5: "Any pending navigation is cancelled by calling abort on
	// the HTTP client before issuing the next").
	Abort(reqID uint64)

	// NewHeaders returns a fresh, empty header set for building a request.
	NewHeaders() http.Header

	// NextReqID returns the next request id without consuming it.
	NextReqID() uint64
	// IncrReqID consumes and returns the next request id.
	IncrReqID() uint64

	// Outstanding reports how many requests are currently in flight,
	// feeding the IdleNotification machines (spec.md §4.5).
	Outstanding() int
}
