// Package diagnostic provides structured, non-fatal diagnostic reporting
// for the analyzer's three error kinds (§7): unknown-name, malformed-ast,
// and unmodeled-construct, plus parse diagnostics surfaced by
// internal/frontend. None of these represent a fatal failure — the
// analyzer is total over its inputs and always produces a result; a
// Diagnostic is a record of a conservative fallback having been taken.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/tavola/flowgraph/internal/ast"
)

// Severity represents how significant a diagnostic is. Every diagnostic
// this package emits on the analyzer's own behalf is Info or Warning —
// nothing the core reports is ever an Error, by design (§7: "no exceptions
// propagate out"). Error is reserved for the frontend's own parse failures.
type Severity uint8

const (
	// Info records that a conservative fallback was taken with no loss
	// the caller needs to act on (e.g. an unmodeled construct recursed
	// into generically).
	Info Severity = iota
	// Warning records a fallback that discards precision a caller may
	// care about (e.g. a destructuring pattern losing field-level edges).
	Warning
	// Error is reserved for frontend parse failures; the core itself
	// never emits one.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Code identifies which of §7's error kinds (or a frontend concern)
// produced a Diagnostic.
type Code string

const (
	// CodeUnknownName is an unqualified reference to a Name with no
	// binding; the dynamic node was substituted.
	CodeUnknownName Code = "unknown-name"
	// CodeMalformedAST is an AST node that violates a shape the walker
	// expects (e.g. a function-definition with a Name slot that is nil
	// where one is required); the binding step was skipped.
	CodeMalformedAST Code = "malformed-ast"
	// CodeUnmodeledConstruct is an AST kind with no dedicated seeding
	// rule; the generic-recursion fallback applied.
	CodeUnmodeledConstruct Code = "unmodeled-construct"
	// CodeParseError is a frontend parse failure (not part of the core).
	CodeParseError Code = "parse-error"
)

// Diagnostic is a single non-fatal observation.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      ast.Pos
	File     string // empty for single-file / in-memory analyses
}

// Error satisfies the error interface so a Diagnostic can be passed through
// %w-wrapping call sites without an adapter.
func (d Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s", d.File, d.Pos.Line, d.Pos.Column, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s: %s", d.Pos.Line, d.Pos.Column, d.Severity, d.Code, d.Message)
}

// Bag collects diagnostics raised while seeding or parsing a single
// analysis unit. A nil *Bag is valid and silently discards every report,
// so callers that don't care about diagnostics (most tests) can pass nil.
type Bag struct {
	File  string
	items []Diagnostic
}

// NewBag creates an empty Bag for the given file (may be empty for
// in-memory input).
func NewBag(file string) *Bag {
	return &Bag{File: file}
}

// Add appends a diagnostic, filling in File from the bag if unset. Add is a
// no-op on a nil Bag.
func (b *Bag) Add(d Diagnostic) {
	if b == nil {
		return
	}
	if d.File == "" {
		d.File = b.File
	}
	b.items = append(b.items, d)
}

// UnknownName records an unqualified reference with no binding.
func (b *Bag) UnknownName(pos ast.Pos, spelling string) {
	b.Add(Diagnostic{
		Severity: Info,
		Code:     CodeUnknownName,
		Message:  fmt.Sprintf("reference to undeclared name %q resolved to the dynamic node", spelling),
		Pos:      pos,
	})
}

// MalformedAST records a node that violates an expected shape; the binding
// step it would have driven was skipped.
func (b *Bag) MalformedAST(pos ast.Pos, message string) {
	b.Add(Diagnostic{
		Severity: Warning,
		Code:     CodeMalformedAST,
		Message:  message,
		Pos:      pos,
	})
}

// UnmodeledConstruct records an AST kind with no dedicated seeding rule.
func (b *Bag) UnmodeledConstruct(pos ast.Pos, kind string) {
	b.Add(Diagnostic{
		Severity: Info,
		Code:     CodeUnmodeledConstruct,
		Message:  fmt.Sprintf("%q has no dedicated seeding rule; recursed into generically", kind),
		Pos:      pos,
	})
}

// ParseError records a frontend parse failure.
func (b *Bag) ParseError(pos ast.Pos, message string) {
	b.Add(Diagnostic{
		Severity: Error,
		Code:     CodeParseError,
		Message:  message,
		Pos:      pos,
	})
}

// Items returns every diagnostic collected so far, in report order.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// HasErrors reports whether any Error-severity diagnostic was collected.
func (b *Bag) HasErrors() bool {
	if b == nil {
		return false
	}
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics collected.
func (b *Bag) Count() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Format renders every diagnostic as one line each, in report order.
func (b *Bag) Format() string {
	if b == nil || len(b.items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range b.items {
		sb.WriteString(d.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}
