package pagecore

import "github.com/atdiar/pagecore/internal/htmldriver"

// documentSink adapts a Document (plus its owning Page, for script/iframe
// readiness hooks) to htmldriver.Sink, per spec.md §4.3's parser-driver
// contract. Node references cross the package boundary as `any`/*Node
// pairs; this file is the only place that asserts them back to *Node.
type documentSink struct {
	doc  *Document
	page *Page

	// fragmentRoot, if set, overrides Root() — used when parsing a
	// fragment (innerHTML) under a specific container node instead of
	// the document root.
	fragmentRoot *Node

	// fragmentMode is true for innerHTML-style parses, where spec.md
	// §4.3 says scripts inside the parsed fragment must NOT execute.
	fragmentMode bool
}

var _ htmldriver.Sink = (*documentSink)(nil)

func (s *documentSink) CreateElement(namespace, tagName string, attrs []htmldriver.Attr) any {
	return s.doc.CreateElementNS(namespace, tagName, attrs)
}

func (s *documentSink) CreateText(data string) any {
	return s.doc.CreateTextNode(data)
}

func (s *documentSink) CreateComment(data string) any {
	return s.doc.CreateComment(data)
}

func (s *documentSink) AppendChild(parent, child any) {
	p := s.asNode(parent)
	c := child.(*Node)
	if p == nil {
		return
	}
	if err := p.AppendChild(c); err != nil {
		logError(s.page.logger, ErrDOM, "parser append failed", "page_id", s.page.ID, "error", err.Error())
		return
	}
	s.registerIfElement(c)
}

func (s *documentSink) LastChild(parent any) (any, bool) {
	p := s.asNode(parent)
	if p == nil {
		return nil, false
	}
	lc := p.LastChild()
	if lc == nil {
		return nil, false
	}
	return lc, true
}

func (s *documentSink) IsText(node any) bool {
	n, ok := node.(*Node)
	return ok && n.Kind == KindText
}

func (s *documentSink) AppendTextData(node any, data string) {
	n := node.(*Node)
	n.Data += data
}

func (s *documentSink) NodeComplete(node any) {
	n := node.(*Node)
	if !n.IsElement() || s.fragmentMode {
		return
	}
	switch n.TagName() {
	case "script":
		s.page.Scripts.AddFromElement(n, false)
	case "iframe":
		s.page.createChildFrame(n)
	}
}

func (s *documentSink) SetDoctype(name, public, system string) {
	// Doctype storage beyond acknowledging it was seen is not needed by
	// any SPEC_FULL.md operation; the parser already tolerates its
	// absence (spec.md §7: "the parser is lenient").
}

func (s *documentSink) Root() any {
	if s.fragmentRoot != nil {
		return s.fragmentRoot
	}
	return s.doc.Root()
}

func (s *documentSink) asNode(v any) *Node {
	if v == nil {
		return s.doc.Root()
	}
	n, _ := v.(*Node)
	return n
}

// registerIfElement registers an id-mapped, newly-inserted element into
// the Document's id-map (shadow trees have no map of their own), per
// spec.md §4.8.
func (s *documentSink) registerIfElement(n *Node) {
	if !n.IsElement() {
		return
	}
	if id, ok := n.GetAttribute("id"); ok && id != "" {
		s.doc.RegisterID(id, n)
	}
	s.page.assignSlotIfApplicable(n)
}
