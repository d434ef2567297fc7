package pagecore

import (
	"encoding/json"
	"net/url"
	"strings"
)

// parseImportMapJSON decodes the standard `{"imports": {...}}` import-map
// wire format. Uses stdlib encoding/json rather than a third-party JSON
// library: no repo in the examples pack depends on one (see DESIGN.md's
// stdlib-only justifications), and this is the only JSON the core parses.
func parseImportMapJSON(src []byte) (map[string]string, error) {
	var doc struct {
		Imports map[string]string `json:"imports"`
	}
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	return doc.Imports, nil
}

// moduleState is a static-import module-graph entry's lifecycle, per
// spec.md §4.6: "loading | done(buffer) | error".
type moduleState uint8

const (
	moduleLoading moduleState = iota
	moduleDone
	moduleError
)

// moduleEntry is one URL's cached fetch result in the module map. waitCount
// tracks how many importers are still racing for this entry's buffer, per
// spec.md §4.6: "a wait count on each entry ensures the buffer is retained
// while multiple importers race for it."
type moduleEntry struct {
	state     moduleState
	buf       []byte
	err       error
	waitCount int
}

// ImportMap holds the resolved specifier -> absolute URL table installed
// by an inline `<script type="importmap">`, per spec.md §4.6.
type ImportMap struct {
	entries map[string]string
}

// NewImportMap creates an empty import map.
func NewImportMap() *ImportMap { return &ImportMap{entries: make(map[string]string)} }

// Install adds already-decoded mappings to the map. Decoding the wire
// format (JSON with an "imports" object) is done beforehand by
// parseImportMapJSON, with encoding/json.
func (m *ImportMap) Install(mappings map[string]string) {
	for k, v := range mappings {
		m.entries[k] = v
	}
}

// resolveSpecifier implements spec.md §4.6's resolution order: the import
// map first (keys are unresolved specifiers, values are already-resolved
// absolute URLs), else resolve as a URL relative to base.
func (m *ScriptManager) resolveSpecifier(base, specifier string) (string, error) {
	if resolved, ok := m.importMap.entries[specifier]; ok {
		return resolved, nil
	}
	if strings.HasPrefix(specifier, "http://") || strings.HasPrefix(specifier, "https://") {
		return specifier, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(specifier)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(rel).String(), nil
}

// preloadImport dedupes a static import by URL and begins fetching it if
// not already in flight, per spec.md §4.6. Safe to call redundantly for
// the same URL from multiple importers.
func (m *ScriptManager) preloadImport(resolvedURL string) {
	if _, exists := m.modules[resolvedURL]; exists {
		m.modules[resolvedURL].waitCount++
		return
	}
	entry := &moduleEntry{state: moduleLoading, waitCount: 1}
	m.modules[resolvedURL] = entry
	m.fetchModule(resolvedURL, entry)
}

// waitForImport blocks (pumping the HTTP client) until resolvedURL's
// module entry transitions from loading to done or error, per spec.md
// §4.6. This is the synchronous counterpart to dynamic import's
// callback-based getAsyncImport.
func (m *ScriptManager) waitForImport(resolvedURL string) ([]byte, error) {
	entry, ok := m.modules[resolvedURL]
	if !ok {
		m.preloadImport(resolvedURL)
		entry = m.modules[resolvedURL]
	}
	for entry.state == moduleLoading {
		m.page.Tick(50)
	}
	entry.waitCount--
	if entry.state == moduleError {
		return nil, entry.err
	}
	return entry.buf, nil
}

// getAsyncImport implements dynamic import: fetch (sharing the same
// module-map dedupe as static imports) and invoke cb with the result once
// available, without blocking the caller.
func (m *ScriptManager) getAsyncImport(resolvedURL string, cb func(buf []byte, err error)) {
	entry, exists := m.modules[resolvedURL]
	if !exists {
		entry = &moduleEntry{state: moduleLoading, waitCount: 1}
		m.modules[resolvedURL] = entry
		m.fetchModule(resolvedURL, entry)
	} else {
		entry.waitCount++
	}
	m.dynamicImportCallbacks[resolvedURL] = append(m.dynamicImportCallbacks[resolvedURL], cb)
	if entry.state != moduleLoading {
		m.flushDynamicImportCallbacks(resolvedURL, entry)
	}
}

func (m *ScriptManager) flushDynamicImportCallbacks(resolvedURL string, entry *moduleEntry) {
	cbs := m.dynamicImportCallbacks[resolvedURL]
	delete(m.dynamicImportCallbacks, resolvedURL)
	for _, cb := range cbs {
		if entry.state == moduleError {
			cb(nil, entry.err)
		} else {
			cb(entry.buf, nil)
		}
		entry.waitCount--
	}
}
