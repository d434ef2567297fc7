package pagecore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/atdiar/pagecore/internal/htmldriver"
	"github.com/atdiar/pagecore/internal/netclient"
	"github.com/atdiar/pagecore/internal/notify"
)

// resourceClass is the sniffed-and-classified shape of a navigation
// response body, per spec.md §4.5's HTTP data callback: "Classify into
// {html, text, image, raw, pre}."
type resourceClass uint8

const (
	classHTML resourceClass = iota
	classText
	classImage
	classRaw
	classPre
)

// NavigateOptions configures a Navigate call. Currently just a named
// struct for forward compatibility (referrer, cache mode, etc. would live
// here); spec.md leaves opts otherwise unspecified.
type NavigateOptions struct {
	Referrer string
	Method   string
}

// navState tracks the in-flight navigation's accumulated body and sniff
// decision across HTTP callback invocations.
type navState struct {
	reqID    uint64
	url      string
	buf      bytes.Buffer
	sniffed  bool
	class    resourceClass
	driver   *htmldriver.Driver
	canceled bool
}

// Navigate begins loading url, per spec.md §4.5: enters `parsing`, emits
// page_navigate, issues HTTP. about:blank is special-cased to complete
// immediately with no HTTP request (scenario 1 of spec.md §8).
func (p *Page) Navigate(ctx context.Context, url string, opts NavigateOptions) {
	p.client.Abort(0) // cancel any still-pending prior navigation

	p.resetDocument()
	p.reqID = p.client.NextReqID()
	p.loadState = LoadParsing
	p.parsing = true

	p.emit(notify.PageNavigate, p.reqID, url, nil)
	p.Doc.SetLocation(Location{URL: url})

	if url == "about:blank" {
		p.completeBlankNavigation(url)
		return
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ns := &navState{reqID: p.reqID, url: url}

	req := &netclient.Request{
		ReqID:        p.client.IncrReqID(),
		URL:          url,
		Method:       method,
		Headers:      p.client.NewHeaders(),
		ResourceType: netclient.ResourceDocument,
		Ctx:          ctx,
		HeaderCB: func(status int, headers http.Header, finalURL string) {
			p.onNavigateHeader(ns, status, headers, finalURL)
		},
		DataCB: func(chunk []byte) {
			p.onNavigateData(ns, chunk)
		},
		DoneCB: func() {
			p.onNavigateDone(ns)
		},
		ErrorCB: func(err error) {
			p.onNavigateError(ns, err)
		},
	}
	p.client.Request(req)
}

// completeBlankNavigation implements scenario 1 of spec.md §8: no HTTP
// request, document.URL == "about:blank", load state goes straight to
// complete.
func (p *Page) completeBlankNavigation(url string) {
	p.parsing = false
	p.staticScriptsDone = true
	p.emit(notify.PageNavigated, p.reqID, url, nil)
	p.Scripts.Evaluate()
}

// onNavigateHeader applies a redirected canonical URL, per spec.md §4.5:
// "if redirected, update the canonical URL; set window and document
// location."
func (p *Page) onNavigateHeader(ns *navState, status int, headers http.Header, finalURL string) {
	if finalURL != "" && finalURL != ns.url {
		ns.url = finalURL
		p.Doc.SetLocation(Location{URL: finalURL})
	}
	p.emit(notify.PageNavigated, ns.reqID, ns.url, status)
}

// onNavigateData sniffs the first chunk's MIME class, classifies it, and
// ensures the HTML parser driver is running over either the raw bytes
// (html) or a synthetic wrapper document (text/image), per spec.md §4.5.
func (p *Page) onNavigateData(ns *navState, chunk []byte) {
	ns.buf.Write(chunk)

	if !ns.sniffed {
		ns.sniffed = true
		ns.class = sniffResourceClass(ns.buf.Bytes())
		sink := &documentSink{doc: p.Doc, page: p}
		ns.driver = htmldriver.New(sink, htmldriver.ModeDocument)
		p.activeDriver = ns.driver

		switch ns.class {
		case classHTML:
			// Parsed in one pass in onNavigateDone, once the body is
			// fully buffered.
		case classText, classImage, classPre:
			// Wrapped synthetically once the body is fully buffered in
			// onNavigateDone; nothing to do per-chunk.
		case classRaw:
		}
	}
}

// onNavigateDone runs the parser over the accumulated buffer, marks
// static scripts done, and fires documentIsComplete immediately if the
// script manager has nothing pending, per spec.md §4.5.
func (p *Page) onNavigateDone(ns *navState) {
	body := ns.buf.Bytes()
	if ns.driver == nil {
		// An empty body delivers no data chunk, so no driver exists yet.
		ns.driver = htmldriver.New(&documentSink{doc: p.Doc, page: p}, htmldriver.ModeDocument)
	}
	switch ns.class {
	case classHTML:
		_ = ns.driver.Parse(string(body))
	case classText:
		_ = ns.driver.Parse(wrapAsHTML("pre", body))
	case classPre:
		_ = ns.driver.Parse(wrapAsHTML("pre", body))
	case classImage:
		_ = ns.driver.Parse(wrapAsImage(ns.url))
	case classRaw:
		// Raw resource types are not parsed as a document at all. The
		// empty parse adds no nodes: the driver does not synthesize
		// html/head/body, here or for an empty HTML body.
		_ = ns.driver.Parse("")
	}

	p.parsing = false
	p.activeDriver = nil
	p.staticScriptsDone = true
	p.Scripts.Evaluate()
}

// onNavigateError synthesizes an error-page document and completes
// normally, per spec.md §4.5 and §7: transport errors "surface to the
// page as a failed navigation that still produces a synthetic error
// document."
func (p *Page) onNavigateError(ns *navState, err error) {
	logError(p.logger, ErrTransport, "navigation failed", "page_id", p.ID, "url", ns.url, "error", err.Error())

	sink := &documentSink{doc: p.Doc, page: p}
	driver := htmldriver.New(sink, htmldriver.ModeDocument)
	_ = driver.Parse(wrapAsErrorPage(err))

	p.parsing = false
	p.activeDriver = nil
	p.staticScriptsDone = true
	p.Scripts.Evaluate()
}

// sniffResourceClass classifies a response body's leading bytes per
// spec.md §4.5: a leading '<' (after whitespace) means HTML; otherwise
// net/http's DetectContentType picks image or text, and any other body
// counts as HTML only when golang.org/x/net/html/charset's
// DetermineEncoding is certain of its encoding, else as raw.
func sniffResourceClass(head []byte) resourceClass {
	if len(head) == 0 {
		return classHTML
	}
	contentType := http.DetectContentType(head)
	switch {
	case bytes.HasPrefix(bytes.TrimSpace(head), []byte("<")):
		return classHTML
	case hasPrefixAny(contentType, "image/"):
		return classImage
	case hasPrefixAny(contentType, "text/plain"):
		return classText
	default:
		_, _, certain := charset.DetermineEncoding(head, contentType)
		if certain {
			return classHTML
		}
		return classRaw
	}
}

func hasPrefixAny(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// wrapAsHTML wraps non-HTML text content in a synthetic document so the
// parser always runs over some HTML, per spec.md §4.5.
func wrapAsHTML(tag string, body []byte) string {
	return fmt.Sprintf("<html><head></head><body><%s>%s</%s></body></html>", tag, escapeForPre(body), tag)
}

func wrapAsImage(url string) string {
	return fmt.Sprintf(`<html><head></head><body><img src="%s"></body></html>`, url)
}

func wrapAsErrorPage(err error) string {
	return fmt.Sprintf("<html><head><title>Error</title></head><body><p>%s</p></body></html>", escapeForPre([]byte(err.Error())))
}

func escapeForPre(body []byte) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(string(body))
}
