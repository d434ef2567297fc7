// Package htmldriver adapts golang.org/x/net/html's tokenizer into the
// push-parser contract spec.md §4.3 and §6 describe: a stream of
// create-element / append-text / complete-node callbacks, with document and
// fragment parse modes. document.write's reentrancy is handled by Write,
// not a third mode; see its doc comment.
//
// The driver owns the open-element stack; Sink only knows how to create
// and link nodes. This keeps the package free of any dependency on the
// concrete DOM types in the root `pagecore` package (which in turn depends
// on this package), avoiding an import cycle while still grounding the
// design on atdiar-particleui/drivers/js/htmlrender.go and
// dom_server_ssr.go, which walk *html.Node trees for this exact teacher.
package htmldriver

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is one parsed attribute, in source order.
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

// Mode is the parse mode described in spec.md §4.3.
type Mode int

const (
	// ModeDocument is the initial navigation parse: mutation records are
	// suppressed until parsing ends, and scripts execute normally.
	// document.write's reentrancy (spec.md §4.3) is handled by Write
	// pushing a temporary insertion point onto the open-element stack, not
	// by a distinct mode, so there is no separate document_write mode here.
	ModeDocument Mode = iota
	// ModeFragment backs innerHTML-and-similar parses: mutation records
	// fire immediately and scripts inside the parsed fragment do not
	// execute.
	ModeFragment
)

// Sink is implemented by the DOM owner (pagecore.Document) to receive
// parser callbacks. All node references are opaque (`any`) from this
// package's point of view; the sink knows their concrete type.
type Sink interface {
	// CreateElement materializes a new element for a start tag. namespace
	// is "html", "svg", or "mathml" (see namespaceFor), matching spec.md §4.4's
	// createElementNS dispatch. The element is not yet linked into the
	// tree; AppendChild does that.
	CreateElement(namespace, tagName string, attrs []Attr) (node any)

	// CreateText creates a new standalone Text node with the given data.
	CreateText(data string) (node any)

	// CreateComment creates a new Comment node.
	CreateComment(data string) (node any)

	// AppendChild links child under parent (parent may be nil for the
	// document root's first element).
	AppendChild(parent, child any)

	// LastChild returns the current last child of parent, or nil.
	LastChild(parent any) (child any, ok bool)

	// IsText reports whether node is a Text node.
	IsText(node any) bool

	// AppendTextData appends data to an existing Text node (used to
	// coalesce adjacent text runs instead of creating a new Text node).
	AppendTextData(node any, data string)

	// NodeComplete is called once a node's subtree (all descendants) has
	// finished parsing. For <script> and <iframe> elements this is where
	// the sink marks them ready for their respective loaders.
	NodeComplete(node any)

	// SetDoctype records the document type declaration, if any.
	SetDoctype(name, public, system string)

	// Root returns the node new top-level elements should be appended to
	// when the open-element stack is empty (typically the Document or the
	// fragment's context node).
	Root() any
}

// Driver streams bytes into a Sink, maintaining the open-element stack
// that spec.md §4.3 assigns to "the driver" rather than the sink.
type Driver struct {
	sink Sink
	mode Mode

	stack    []any // open elements, root-most first
	tagNames map[any]string
}

// New creates a Driver for the given sink and parse mode.
func New(sink Sink, mode Mode) *Driver {
	return &Driver{sink: sink, mode: mode, tagNames: make(map[any]string)}
}

// currentParent returns the node new children should be appended under:
// the top of the open-element stack, or the sink's Root() if the stack is
// empty. Write temporarily pushes its insertion-point node onto the stack
// so this needs no separate case for the document_write reentrancy path.
func (d *Driver) currentParent() any {
	if len(d.stack) > 0 {
		return d.stack[len(d.stack)-1]
	}
	return d.sink.Root()
}

// Parse tokenizes src and drives the sink to completion. It is the
// document entry point; Write is the document_write entry point and
// ParseFragment the innerHTML entry point.
func (d *Driver) Parse(src string) error {
	z := html.NewTokenizer(strings.NewReader(src))
	return d.run(z, true)
}

// ParseFragment parses src as a fragment under contextTag (e.g. "div" for
// innerHTML), per spec.md §4.3's fragment mode: scripts inside do not
// execute (the caller is expected to honor that by not handing <script>
// nodes created here to ScriptManager) and it does not itself suppress
// mutation records (that policy lives in the caller, since this package
// has no mutation-observer concept).
func (d *Driver) ParseFragment(src string) error {
	z := html.NewTokenizer(strings.NewReader(src))
	return d.run(z, true)
}

// Write splices src into the document stream as children of parent, per
// spec.md §4.3's document_write reentrancy note: a script running
// mid-parse can have its markup parsed in place, and parsing must resume
// in the outer document afterward exactly as the script left it. parent
// is explicit (normally the writing <script> element's parent) rather
// than "whatever is on top of the stack", since NodeComplete — and so the
// script that might call Write — fires while the script element itself is
// still the top of the open-element stack. Any of src's own elements left
// unclosed at EOF are dropped rather than joining the outer stack, since
// they belong to a document_write call that already returned, not the
// document still being parsed.
func (d *Driver) Write(parent any, src string) error {
	baseLen := len(d.stack)
	d.stack = append(d.stack, parent)
	defer func() { d.stack = d.stack[:baseLen] }()

	z := html.NewTokenizer(strings.NewReader(src))
	return d.run(z, false)
}

// run drives z to completion. closeAtEOF distinguishes a top-level
// Parse/ParseFragment call (which must close every still-open element once
// the input is exhausted) from a nested Write call (which must leave the
// caller's open-element stack untouched so the outer run can resume it).
func (d *Driver) run(z *html.Tokenizer, closeAtEOF bool) error {
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil {
				if err.Error() == "EOF" {
					if closeAtEOF {
						d.closeRemaining()
					}
					return nil
				}
				return err
			}
			if closeAtEOF {
				d.closeRemaining()
			}
			return nil

		case html.DoctypeToken:
			name := string(z.Text())
			d.sink.SetDoctype(name, "", "")

		case html.CommentToken:
			data := string(z.Text())
			node := d.sink.CreateComment(data)
			d.sink.AppendChild(d.currentParent(), node)

		case html.TextToken:
			data := string(z.Text())
			if data == "" {
				continue
			}
			d.appendText(data)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := d.readTag(z)
			namespace := namespaceFor(name)
			node := d.sink.CreateElement(namespace, name, attrs)
			d.sink.AppendChild(d.currentParent(), node)
			if tt == html.SelfClosingTagToken || isVoidElement(name) {
				d.sink.NodeComplete(node)
			} else {
				d.stack = append(d.stack, node)
				d.tagNames[node] = name
			}

		case html.EndTagToken:
			name, _ := d.readTag(z)
			d.closeTo(name)
		}
	}
}

// appendText concatenates into an existing trailing Text sibling rather
// than creating a new Text node, per spec.md §4.3.
func (d *Driver) appendText(data string) {
	parent := d.currentParent()
	if last, ok := d.sink.LastChild(parent); ok && d.sink.IsText(last) {
		d.sink.AppendTextData(last, data)
		return
	}
	node := d.sink.CreateText(data)
	d.sink.AppendChild(parent, node)
}

func (d *Driver) readTag(z *html.Tokenizer) (string, []Attr) {
	name, hasAttr := z.TagName()
	tagName := string(name)
	var attrs []Attr
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs = append(attrs, Attr{Name: string(key), Value: string(val)})
	}
	return strings.ToLower(tagName), attrs
}

// closeTo pops the open-element stack up to and including the first
// element named tagName, calling NodeComplete on each popped node. If
// tagName never appears (malformed HTML, which the parser must tolerate
// per spec.md §7), this is a no-op on the stack.
func (d *Driver) closeTo(tagName string) {
	idx := -1
	for i := len(d.stack) - 1; i >= 0; i-- {
		if d.stackTagName(d.stack[i]) == tagName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	for i := len(d.stack) - 1; i >= idx; i-- {
		d.sink.NodeComplete(d.stack[i])
		delete(d.tagNames, d.stack[i])
	}
	d.stack = d.stack[:idx]
}

// stackTagName is resolved through a type assertion helper the sink
// implementation supplies indirectly: we ask the sink to tell us by
// comparing against a fresh CreateElement is wasteful, so instead the
// driver tracks tag names alongside nodes.
func (d *Driver) stackTagName(node any) string {
	if tn, ok := d.tagNames[node]; ok {
		return tn
	}
	return ""
}

func (d *Driver) closeRemaining() {
	for i := len(d.stack) - 1; i >= 0; i-- {
		d.sink.NodeComplete(d.stack[i])
	}
	d.stack = nil
	d.tagNames = make(map[any]string)
}

func namespaceFor(tagName string) string {
	switch tagName {
	case "svg":
		return "svg"
	case "math":
		return "mathml"
	default:
		return "html"
	}
}

// isVoidElement reports whether tagName never has an end tag (img, br,
// ...), using golang.org/x/net/html/atom's table for the lookup rather
// than a hand-rolled switch, per SPEC_FULL.md §11's perfect-hash reuse.
func isVoidElement(tagName string) bool {
	switch atom.Lookup([]byte(tagName)) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
