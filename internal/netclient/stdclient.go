package netclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// event is one callback invocation queued by a background fetch goroutine,
// drained and invoked synchronously by Tick on the page's goroutine.
type event struct {
	reqID uint64
	kind  eventKind

	status   int
	headers  http.Header
	finalURL string
	chunk    []byte
	err      error
}

type eventKind int

const (
	evStart eventKind = iota
	evHeader
	evData
	evDone
	evError
)

// StdClient binds the Client contract to net/http + a shared cookie jar,
// grounded directly on atdiar-particleui/async.go's HttpClient/CookieJar/
// cloneReq request lifecycle. Fetches run on background goroutines (Go has
// no non-blocking socket API at this level) but every callback is replayed
// onto the caller's goroutine by Tick, so from the page's point of view
// the client behaves like the non-blocking client spec.md §5 describes.
type StdClient struct {
	http *http.Client
	jar  http.CookieJar

	mu       sync.Mutex
	nextID   uint64
	inflight map[uint64]*inflightReq
	events   chan event

	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
	// PerOriginRPS bounds outbound request rate per origin, the way a
	// scraping pipeline must (golang.org/x/time/rate, the pattern
	// Easonliuliang-purify wires for its own outbound fetches). Zero means
	// unlimited.
	PerOriginRPS float64
}

type inflightReq struct {
	cancel func()
	req    *Request
}

// NewStdClient builds a StdClient with its own cookie jar, mirroring
// atdiar-particleui/async.go's package-level CookieJar + SetHttpClient
// wiring but scoped to one Page instead of the whole process.
func NewStdClient() *StdClient {
	jar, _ := cookiejar.New(nil)
	return &StdClient{
		http:     &http.Client{Jar: jar},
		jar:      jar,
		inflight: make(map[uint64]*inflightReq),
		events:   make(chan event, 64),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *StdClient) NewHeaders() http.Header { return make(http.Header) }

func (c *StdClient) NextReqID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextID + 1
}

func (c *StdClient) IncrReqID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

func (c *StdClient) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

func (c *StdClient) limiterFor(u *url.URL) *rate.Limiter {
	if c.PerOriginRPS <= 0 {
		return nil
	}
	origin := u.Scheme + "://" + u.Host
	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()
	l, ok := c.limiters[origin]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.PerOriginRPS), 1)
		c.limiters[origin] = l
	}
	return l
}

// Request issues req on a background goroutine. Every callback is deferred
// to Tick via the events channel; Request itself never blocks and never
// invokes a callback directly.
func (c *StdClient) Request(req *Request) {
	httpReq, err := http.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		c.mu.Lock()
		c.inflight[req.ReqID] = &inflightReq{cancel: func() {}, req: req}
		c.mu.Unlock()
		c.events <- event{reqID: req.ReqID, kind: evError, err: err}
		return
	}
	httpReq.Header = req.Headers
	if req.CookieJar != nil {
		c.http.Jar = req.CookieJar
	}

	ctx := req.Ctx
	if ctx == nil {
		ctx = httpReq.Context()
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	httpReq = httpReq.WithContext(cancelCtx)

	c.mu.Lock()
	c.inflight[req.ReqID] = &inflightReq{cancel: cancel, req: req}
	c.mu.Unlock()

	lim := c.limiterFor(httpReq.URL)

	c.events <- event{reqID: req.ReqID, kind: evStart}

	go func() {
		if lim != nil {
			_ = lim.Wait(cancelCtx)
		}
		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.events <- event{reqID: req.ReqID, kind: evError, err: err}
			return
		}
		defer resp.Body.Close()

		finalURL := httpReq.URL.String()
		if resp.Request != nil && resp.Request.URL != nil {
			finalURL = resp.Request.URL.String()
		}
		c.events <- event{reqID: req.ReqID, kind: evHeader, status: resp.StatusCode, headers: resp.Header, finalURL: finalURL}

		buf := make([]byte, 32*1024)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				c.events <- event{reqID: req.ReqID, kind: evData, chunk: chunk}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				c.events <- event{reqID: req.ReqID, kind: evError, err: rerr}
				return
			}
		}
		c.events <- event{reqID: req.ReqID, kind: evDone}
	}()
}

func (c *StdClient) Abort(reqID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reqID == 0 {
		for id, ir := range c.inflight {
			ir.cancel()
			delete(c.inflight, id)
		}
		return
	}
	if ir, ok := c.inflight[reqID]; ok {
		ir.cancel()
		delete(c.inflight, reqID)
	}
}

// Tick drains queued events for up to budgetMS and dispatches each to its
// request's callbacks synchronously, matching spec.md §6's
// tick(ms) -> {cdp_socket | timeout | progress} contract (simplified here
// to TickProgress/TickTimeout since this core has no CDP socket of its
// own).
func (c *StdClient) Tick(budgetMS int) TickResult {
	deadline := time.Now().Add(time.Duration(budgetMS) * time.Millisecond)
	progressed := false

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if !progressed {
				return TickTimeout
			}
			return TickProgress
		}
		select {
		case ev := <-c.events:
			c.dispatch(ev)
			progressed = true
		case <-time.After(remaining):
			if !progressed {
				return TickTimeout
			}
			return TickProgress
		}
	}
}

func (c *StdClient) dispatch(ev event) {
	c.mu.Lock()
	ir, ok := c.inflight[ev.reqID]
	c.mu.Unlock()
	if !ok {
		return
	}
	req := ir.req
	if req == nil {
		return
	}

	switch ev.kind {
	case evStart:
		if req.StartCB != nil {
			req.StartCB()
		}
	case evHeader:
		if req.HeaderCB != nil {
			req.HeaderCB(ev.status, ev.headers, ev.finalURL)
		}
	case evData:
		if req.DataCB != nil {
			req.DataCB(ev.chunk)
		}
	case evDone:
		if req.DoneCB != nil {
			req.DoneCB()
		}
		c.mu.Lock()
		delete(c.inflight, ev.reqID)
		c.mu.Unlock()
	case evError:
		if req.ErrorCB != nil {
			req.ErrorCB(ev.err)
		}
		c.mu.Lock()
		delete(c.inflight, ev.reqID)
		c.mu.Unlock()
	}
}

var _ Client = (*StdClient)(nil)
