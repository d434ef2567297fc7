package netclient

import "net/http"

// FakeResponse is the canned result FakeClient delivers for a given URL.
// DelayTicks lets a test control relative completion order across several
// in-flight requests (e.g. an async script's fetch finishing after a
// deferred script's, or vice versa) without depending on real wall-clock
// timing.
type FakeResponse struct {
	Status     int
	Body       []byte
	Err        error
	DelayTicks int
}

type pendingRequest struct {
	req       *Request
	ticksLeft int
}

// FakeClient is a deterministic, in-memory Client double for tests:
// Request enqueues, Tick fires due callbacks synchronously. Grounded on the
// teacher's function-valued-field style of faking collaborators
// (atdiar-particleui/native.go's NativeDispatcher/NativeEventBridger) rather
// than a mocking framework, per SPEC_FULL.md §10.3.
type FakeClient struct {
	Responses map[string]FakeResponse

	nextID  uint64
	pending map[uint64]*pendingRequest
	Issued  []*Request // log of every request passed to Request, for assertions
}

// NewFakeClient creates an empty FakeClient; set Responses before issuing
// navigations/fetches that need a specific body or error.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Responses: make(map[string]FakeResponse),
		pending:   make(map[uint64]*pendingRequest),
	}
}

func (c *FakeClient) Request(req *Request) {
	c.Issued = append(c.Issued, req)
	resp, ok := c.Responses[req.URL]
	delay := 0
	if ok {
		delay = resp.DelayTicks
	}
	c.pending[req.ReqID] = &pendingRequest{req: req, ticksLeft: delay}
	if req.StartCB != nil {
		req.StartCB()
	}
}

func (c *FakeClient) Tick(budgetMS int) TickResult {
	progressed := false
	for id, p := range c.pending {
		if p.ticksLeft > 0 {
			p.ticksLeft--
			continue
		}
		delete(c.pending, id)
		c.deliver(p.req)
		progressed = true
	}
	if progressed {
		return TickProgress
	}
	return TickTimeout
}

func (c *FakeClient) deliver(req *Request) {
	resp, ok := c.Responses[req.URL]
	if !ok {
		resp = FakeResponse{Status: 200}
	}
	if resp.Err != nil {
		if req.ErrorCB != nil {
			req.ErrorCB(resp.Err)
		}
		return
	}
	if req.HeaderCB != nil {
		req.HeaderCB(statusOr200(resp.Status), make(http.Header), "")
	}
	if req.DataCB != nil && len(resp.Body) > 0 {
		req.DataCB(resp.Body)
	}
	if req.DoneCB != nil {
		req.DoneCB()
	}
}

func statusOr200(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

func (c *FakeClient) Abort(reqID uint64) {
	if reqID == 0 {
		c.pending = make(map[uint64]*pendingRequest)
		return
	}
	delete(c.pending, reqID)
}

func (c *FakeClient) NewHeaders() http.Header { return make(http.Header) }

func (c *FakeClient) NextReqID() uint64 { return c.nextID + 1 }

func (c *FakeClient) IncrReqID() uint64 {
	c.nextID++
	return c.nextID
}

func (c *FakeClient) Outstanding() int { return len(c.pending) }
