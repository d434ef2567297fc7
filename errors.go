package pagecore

import (
	"fmt"
	"log/slog"
)

// ErrorKind classifies internal failures per spec.md §7's taxonomy, used
// to pick structured log fields and decide whether a failure is
// user-visible (surfaced to JS) or swallowed (logged, page continues).
type ErrorKind string

const (
	ErrTransport ErrorKind = "transport"
	ErrParse     ErrorKind = "parse"
	ErrScript    ErrorKind = "script"
	ErrDOM       ErrorKind = "dom"
	ErrInternal  ErrorKind = "internal"
)

// PageError wraps an error with the structured context spec.md §7
// requires be logged alongside resource-exhaustion/internal failures:
// URL, resource type, element tag.
type PageError struct {
	Kind    ErrorKind
	URL     string
	TagName string
	Err     error
}

func (e *PageError) Error() string {
	if e.URL == "" && e.TagName == "" {
		return fmt.Sprintf("pagecore: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("pagecore: %s: url=%q tag=%q: %v", e.Kind, e.URL, e.TagName, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// newPageError constructs a PageError with the given classification.
func newPageError(kind ErrorKind, url, tag string, err error) *PageError {
	return &PageError{Kind: kind, URL: url, TagName: tag, Err: err}
}

// logError emits a structured log/slog record for an internal failure
// that should not propagate to user JS, per spec.md §7: "logged with
// structured fields (URL, type, element tag); do not propagate to user JS
// if avoidable".
func logError(logger *slog.Logger, kind ErrorKind, msg string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	all := append([]any{"kind", string(kind)}, args...)
	logger.Error(msg, all...)
}
