// Package errors defines the analyzer's stable error vocabulary, carried
// over from the teacher's error-code-plus-suggested-fix design but narrowed
// to the five kinds spec.md §7 actually names.
package errors

import (
	"fmt"
	"strings"
)

// Kind is one of the five fatal/collectible error kinds from spec.md §7.
type Kind string

const (
	// Config indicates tsconfig.json or a routing file could not be read.
	Config Kind = "CONFIG_ERROR"
	// Resolution indicates a required module specifier resolved to a path
	// that does not exist on disk.
	Resolution Kind = "RESOLUTION_ERROR"
	// Extraction indicates a decorator's argument was not an object literal,
	// or a route's path was neither a literal nor an AppConstants.* chain.
	Extraction Kind = "EXTRACTION_ERROR"
	// Validation indicates an emitted root file fell outside the page
	// module set, the whitelist, and the frontend-test-file exception.
	Validation Kind = "VALIDATION_ERROR"
	// URLMatch indicates a registered URL had no matching route. URLMatch
	// errors are collected and only surfaced in batch.
	URLMatch Kind = "URL_MATCH_ERROR"
)

// AnalyzerError is a CkbError-style error: a stable code, a message for
// humans, optional structured details, and the underlying cause.
type AnalyzerError struct {
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an AnalyzerError of the given kind.
func New(kind Kind, message string, cause error) *AnalyzerError {
	return &AnalyzerError{Kind: kind, Message: message, cause: cause}
}

// Error implements the error interface. When Details is set, its lines are
// appended after the summary, one offender per line, per spec.md §6's
// "diagnostics are printed on stderr, one error per line, with file
// context" rule.
func (e *AnalyzerError) Error() string {
	var b strings.Builder
	if e.cause != nil {
		fmt.Fprintf(&b, "[%s] %s: %v", e.Kind, e.Message, e.cause)
	} else {
		fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	}
	for _, line := range detailLines(e.Details) {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

// detailsLines is implemented by structured Details values that decompose
// into one printable line per offender, e.g. urlmatch.CompareResult.
type detailsLines interface {
	DetailLines() []string
}

func detailLines(details interface{}) []string {
	switch d := details.(type) {
	case nil:
		return nil
	case []string:
		return d
	case detailsLines:
		return d.DetailLines()
	default:
		return []string{fmt.Sprintf("%v", d)}
	}
}

// Unwrap returns the underlying cause, if any.
func (e *AnalyzerError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured context and returns the same error for
// chaining, e.g. return nil, errors.New(...).WithDetails(...).
func (e *AnalyzerError) WithDetails(details interface{}) *AnalyzerError {
	e.Details = details
	return e
}

// Resolutionf builds a Resolution error naming the unresolved target and
// the file that referenced it, matching spec.md §7's "full context" rule.
func Resolutionf(target, fromFile, specifier string) *AnalyzerError {
	return New(Resolution, fmt.Sprintf("cannot resolve %q (from %s) to an existing file; target %s does not exist", specifier, fromFile, target), nil)
}

// Extractionf builds an Extraction error naming the offending class and file.
func Extractionf(className, file string) *AnalyzerError {
	return New(Extraction, fmt.Sprintf("no object argument on class %s in %s", className, file), nil)
}
