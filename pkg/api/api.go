// Package api provides the public API for the flow analyzer.
//
// This package is intended for programmatic use of the analyzer. For CLI
// usage, see cmd/flowgraph.
package api

import (
	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/diagnostic"
	"github.com/tavola/flowgraph/internal/flow"
	"github.com/tavola/flowgraph/internal/frontend"
	"github.com/tavola/flowgraph/internal/prune"
	"github.com/tavola/flowgraph/internal/seed"
)

// Options controls a single-source analysis run.
type Options struct {
	// FileName is used for diagnostic messages and, when Language is
	// unset, for extension-based language detection. Optional.
	FileName string

	// Language forces the frontend's grammar choice. When zero-valued,
	// it is inferred from FileName's extension (defaulting to
	// JavaScript when FileName is also empty).
	Language frontend.Language

	// EntryPointNames is a configurable allow-list of top-level binding
	// spellings treated as pruning roots in addition to the syntactic
	// export forms the frontend already recognizes.
	EntryPointNames []string
}

// Declaration mirrors prune.Declaration without exposing internal *ast.Name
// pointer identity to API callers.
type Declaration struct {
	Name string
	Kind string // "function" or "variable"
	Live bool
}

// Diagnostic mirrors diagnostic.Diagnostic without the internal package
// dependency.
type Diagnostic struct {
	Severity string
	Code     string
	Message  string
	Line     int
	Column   int
}

// Result is the outcome of analyzing one source unit.
type Result struct {
	// Declarations lists every top-level function/variable declaration
	// with its liveness classification.
	Declarations []Declaration

	// Diagnostics lists every non-fatal observation the frontend and
	// seeding walker recorded (unknown-name, malformed-ast,
	// unmodeled-construct, and frontend parse notes).
	Diagnostics []Diagnostic

	// LiveCount and DeadCount summarize Declarations.
	LiveCount int
	DeadCount int
}

// Analyze parses, seeds, saturates, and prunes source, mirroring the
// teacher's single-call Minify shape.
func Analyze(source string, opts Options) Result {
	fileName := opts.FileName
	lang := opts.Language
	if lang == "" {
		if fileName != "" {
			lang = frontend.DetectLanguage(fileName)
		} else {
			lang = frontend.LangJavaScript
		}
	}

	names := ast.NewNameTable()
	diags := diagnostic.NewBag(fileName)
	parser := frontend.NewParser(names)
	prog := parser.ParseSource([]byte(source), lang, diags)

	graph := flow.NewGraph()
	w := seed.New(graph, names, diags)
	w.Seed(prog)
	graph.Drain()

	pruneResult := prune.Prune(prog, graph, prune.Options{EntryPointNames: opts.EntryPointNames})

	result := Result{
		Declarations: make([]Declaration, 0, len(pruneResult.Declarations)),
		LiveCount:    pruneResult.LiveCount,
		DeadCount:    pruneResult.DeadCount,
	}
	for _, d := range pruneResult.Declarations {
		kind := "variable"
		if d.Kind == prune.DeclFunction {
			kind = "function"
		}
		result.Declarations = append(result.Declarations, Declaration{
			Name: d.Name.Spelling,
			Kind: kind,
			Live: d.Live,
		})
	}
	for _, item := range diags.Items() {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: item.Severity.String(),
			Code:     string(item.Code),
			Message:  item.Message,
			Line:     item.Pos.Line,
			Column:   item.Pos.Column,
		})
	}
	return result
}
