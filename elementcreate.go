package pagecore

import (
	"golang.org/x/net/html/atom"

	"github.com/atdiar/pagecore/internal/htmldriver"
)

// CustomElementDefinition is the registry entry produced by
// customElements.define(name, constructor), per spec.md §4.4.
type CustomElementDefinition struct {
	Name        string
	Constructor func(el *Node) error
	Observed    []string

	// AttributeChanged, if set, is invoked for every change to an
	// attribute named in Observed, both the initial replay upgradeElement
	// does right after construction and every later SetAttribute/
	// RemoveAttribute on an upgraded instance (element.go's
	// afterAttributeChanged). oldVal/newVal are "" for an attribute that
	// didn't exist before/doesn't exist after, matching
	// attributeChangedCallback's null-maps-to-empty convention.
	AttributeChanged func(el *Node, name, oldVal, newVal string)
}

// DefineCustomElement registers def under its Name. Redefinition of an
// existing name is rejected by returning false.
func (p *Page) DefineCustomElement(def *CustomElementDefinition) bool {
	if _, exists := p.customElements[def.Name]; exists {
		return false
	}
	p.customElements[def.Name] = def
	return true
}

// CreateElementNS implements spec.md §4.4: dispatch on namespace, then a
// perfect-hash lookup of the lowercased tag name (golang.org/x/net/html/
// atom.Lookup, the same dependency htmldriver.go already uses for void-
// element detection) to decide whether this is a custom element, an SVG
// element, or a generic/unknown element. The "perfect hash" here resolves
// only known-vs-unknown HTML tag names; concrete per-tag element
// constructors beyond the generic Node are out of this core's scope
// (spec.md §1 excludes "every individual DOM element subtype's
// getters/setters").
//
// Invariant held: namespace is set before attrs are populated (NewElement
// takes namespace at construction), and element creation never runs JS
// beyond a custom-element constructor.
func (d *Document) CreateElementNS(namespace, tagName string, attrs []htmldriver.Attr) *Node {
	switch namespace {
	case "svg":
		el := NewElement(d, "svg", tagName)
		applyAttrs(el, attrs)
		return el
	case "mathml":
		el := NewElement(d, "mathml", tagName)
		applyAttrs(el, attrs)
		return el
	case "html", "":
		return d.createHTMLElement(tagName, attrs)
	default:
		el := NewElement(d, namespace, tagName)
		applyAttrs(el, attrs)
		return el
	}
}

func (d *Document) createHTMLElement(tagName string, attrs []htmldriver.Attr) *Node {
	if isCustomTagName(tagName) {
		return d.createCustomElement(tagName, attrs, tagName)
	}

	el := NewElement(d, "html", tagName)
	applyAttrs(el, attrs)

	// Customized built-ins: an `is="..."` attribute names a definition to
	// attach to a standard element (spec.md §4.4).
	for _, a := range attrs {
		if a.Name == "is" {
			return d.upgradeOrMarkUndefined(el, a.Value)
		}
	}
	return el
}

// isCustomTagName reports whether tagName contains a hyphen and is not a
// recognized standard tag under that spelling — the HTML custom-element
// naming rule (a hyphen present at all is sufficient for this core's
// scope; the fuller "must not collide with a small reserved list" rule is
// a detail of the real custom-elements spec this core does not need to
// reproduce exactly).
func isCustomTagName(tagName string) bool {
	if atom.Lookup([]byte(tagName)) != 0 {
		return false
	}
	for i := 0; i < len(tagName); i++ {
		if tagName[i] == '-' {
			return true
		}
	}
	return false
}

// createCustomElement implements the upgrade sequence of spec.md §4.4:
// look up the registered definition; if found, create the host element,
// save/restore the "upgrading element" pointer, invoke the constructor,
// then replay attributeChangedCallback for every existing attribute; if
// not found, create an undefined custom element and remember it for
// later upgrade.
func (d *Document) createCustomElement(tagName string, attrs []htmldriver.Attr, definitionName string) *Node {
	el := NewElement(d, "html", tagName)
	applyAttrs(el, attrs)
	return d.upgradeOrMarkUndefined(el, definitionName)
}

func (d *Document) upgradeOrMarkUndefined(el *Node, definitionName string) *Node {
	p := d.page
	s := el.side()
	s.customElement = &customElementState{definitionName: definitionName}

	if p == nil {
		s.customElement.undefined = true
		return el
	}
	def, ok := p.customElements[definitionName]
	if !ok {
		s.customElement.undefined = true
		return el
	}
	p.upgradeElement(el, def)
	return el
}

// upgradeElement runs def's constructor against el, replaying
// attributeChangedCallback for the element's existing attributes
// afterward, per spec.md §4.4.
func (p *Page) upgradeElement(el *Node, def *CustomElementDefinition) {
	prevUpgrading := p.upgradingElement
	p.upgradingElement = el
	defer func() { p.upgradingElement = prevUpgrading }()

	if def.Constructor != nil {
		if err := def.Constructor(el); err != nil {
			logError(p.logger, ErrScript, "custom element constructor failed", "page_id", p.ID, "tag", el.TagName(), "error", err.Error())
			return
		}
	}

	el.side().customElement.upgraded = true
	el.side().customElement.undefined = false

	if len(def.Observed) == 0 || def.AttributeChanged == nil {
		return
	}
	attrs := el.Attributes()
	for _, name := range def.Observed {
		if v, ok := attrs.Get(name); ok {
			def.AttributeChanged(el, name, "", v)
		}
	}
}

func applyAttrs(el *Node, attrs []htmldriver.Attr) {
	for _, a := range attrs {
		el.SetAttribute(a.Name, a.Value)
	}
}
