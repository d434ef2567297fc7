package pagecore

import (
	"strings"

	"github.com/atdiar/pagecore/internal/htmldriver"
)

// ParseHTMLAsChildren parses htmlSrc as a fragment and appends the
// resulting nodes as children of parent, per spec.md §4.3's fragment
// mode: mutation records fire immediately (no suppression, unlike
// document mode) and scripts inside the fragment do not execute. Paired
// with SerializeChildren for the round-trip invariant of spec.md §8.
func ParseHTMLAsChildren(page *Page, parent *Node) func(htmlSrc string) error {
	return func(htmlSrc string) error {
		sink := &documentSink{doc: parent.Owner(), page: page, fragmentRoot: parent, fragmentMode: true}
		driver := htmldriver.New(sink, htmldriver.ModeFragment)
		return driver.ParseFragment(htmlSrc)
	}
}

// SerializeChildren renders n's children back to an HTML string. This is
// a plain recursive writer, not a byte-for-byte re-encoding of the
// original source: spec.md §8 only requires the round-trip to reproduce
// the tree "modulo whitespace normalisation".
func SerializeChildren(n *Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		serializeNode(&b, c)
	}
	return b.String()
}

func serializeNode(b *strings.Builder, n *Node) {
	switch n.Kind {
	case KindText:
		b.WriteString(escapeText(n.Data))
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case KindCDATASection:
		b.WriteString("<![CDATA[")
		b.WriteString(n.Data)
		b.WriteString("]]>")
	case KindElement:
		serializeElement(b, n)
	case KindDocumentFragment, KindDocument:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			serializeNode(b, c)
		}
	}
}

func serializeElement(b *strings.Builder, n *Node) {
	tag := n.TagName()
	b.WriteByte('<')
	b.WriteString(tag)
	attrs := n.Attributes()
	for i := 0; i < attrs.Len(); i++ {
		name, value := attrs.At(i)
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(value))
		b.WriteByte('"')
	}
	if isVoidTag(tag) {
		b.WriteString(">")
		return
	}
	b.WriteByte('>')
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		serializeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

func isVoidTag(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	default:
		return false
	}
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", `"`, "&quot;")
	return r.Replace(s)
}
