// Package prune implements the downstream reachability pass the core's
// specification calls out of scope for itself (§1, §4.6): given a saturated
// internal/flow.Graph and the *ast.Program it was seeded from, it marks
// every top-level declaration live or dead.
//
// This mirrors the teacher's dce.Mark/markLive/IsDeclarationLive shape one
// level up: instead of a symbol-index dependency graph, it walks the
// points-to graph's Successors edges starting from a set of entry nodes and
// collects every *ast.FunctionExpr reachable along the way.
package prune

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/flow"
)

// Options configures entry-point detection beyond the syntactic
// export forms the frontend already preserves shape for.
type Options struct {
	// EntryPointNames is a configurable allow-list of top-level binding
	// spellings to additionally treat as entry points, sourced from
	// internal/config.
	EntryPointNames []string
}

// DeclKind distinguishes a function declaration from a variable
// declaration. A function declaration is live when one of its functions is
// reachable from an entry point or it is itself an entry point; a variable
// declaration is live only when it is itself an entry point.
type DeclKind uint8

const (
	DeclFunction DeclKind = iota
	DeclVariable
)

// Declaration is one top-level binding's liveness classification.
type Declaration struct {
	Index uint32
	Name  *ast.Name
	Kind  DeclKind
	Live  bool
}

// Result is the outcome of a pruning pass.
type Result struct {
	Declarations []Declaration
	LiveCount    int
	DeadCount    int

	// reachable is a Roaring-bitmap-backed reachability set over
	// Declarations' indices, grounded on a bitmap index instead of a
	// per-declaration bool field so large graphs (thousands of top-level
	// bindings, as in a bundled project analyzed by internal/driver) stay
	// memory-efficient.
	reachable *reachabilitySet
}

// IsLive reports whether the declaration at index i was classified live.
func (r *Result) IsLive(i uint32) bool {
	if r.reachable == nil {
		return false
	}
	return r.reachable.IsSet(i)
}

// reachabilitySet is a thin Roaring-bitmap wrapper, grounded on
// panbanda-omen's HierarchicalBitSet, sized for the declaration count of a
// single analysis run rather than a whole project.
type reachabilitySet struct {
	bitmap *roaring.Bitmap
}

func newReachabilitySet() *reachabilitySet {
	return &reachabilitySet{bitmap: roaring.New()}
}

func (s *reachabilitySet) Set(i uint32)         { s.bitmap.Add(i) }
func (s *reachabilitySet) IsSet(i uint32) bool  { return s.bitmap.Contains(i) }
func (s *reachabilitySet) Count() uint64        { return s.bitmap.GetCardinality() }

// Prune classifies every top-level declaration in prog against the
// saturated graph. It never mutates graph.
func Prune(prog *ast.Program, graph *flow.Graph, opts Options) *Result {
	decls := collectTopLevelDecls(prog)
	entryNames := collectEntryNames(prog, opts.EntryPointNames, graph)

	var roots []*flow.Node
	for name := range entryNames {
		if node, ok := graph.Lookup(name); ok {
			roots = append(roots, node)
		}
	}
	// The dynamic node is always conservatively live: anything that could
	// flow through eval/reflective access must not be pruned.
	roots = append(roots, graph.DynamicNode())

	liveFns := reachableFunctions(roots)

	result := &Result{reachable: newReachabilitySet()}
	for i, d := range decls {
		idx := uint32(i)
		live := false
		if d.Kind == DeclFunction {
			if node, ok := graph.Lookup(d.Name); ok {
				for _, fn := range node.Functions() {
					if _, ok := liveFns[fn]; ok {
						live = true
						break
					}
				}
			}
		}
		if !live {
			if _, ok := entryNames[d.Name]; ok {
				live = true
			}
		}
		d.Index = idx
		d.Live = live
		if live {
			result.reachable.Set(idx)
			result.LiveCount++
		} else {
			result.DeadCount++
		}
		result.Declarations = append(result.Declarations, d)
	}
	return result
}

// reachableFunctions performs the graph-level BFS §4.6 describes: starting
// from roots, follow Successors edges and collect every function seen at
// any visited node.
func reachableFunctions(roots []*flow.Node) map[*ast.FunctionExpr]struct{} {
	live := make(map[*ast.FunctionExpr]struct{})
	visited := make(map[*flow.Node]struct{})
	queue := append([]*flow.Node{}, roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == nil {
			continue
		}
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		for _, fn := range n.Functions() {
			live[fn] = struct{}{}
		}
		queue = append(queue, n.Successors()...)
	}
	return live
}

// collectTopLevelDecls returns every function/variable declaration at the
// program's top level, in source order. Declarations only reachable by
// digging into an OpaqueStmt's wrapped export form are also surfaced, since
// those are still top-level bindings syntactically.
func collectTopLevelDecls(prog *ast.Program) []Declaration {
	var out []Declaration
	var visit func(s ast.Stmt)
	visit = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.ExprStmt:
			if fn, ok := n.X.(*ast.FunctionExpr); ok && fn.Name != nil {
				out = append(out, Declaration{Name: fn.Name, Kind: DeclFunction})
			}
		case *ast.VarDecl:
			if n.Name != nil {
				out = append(out, Declaration{Name: n.Name, Kind: DeclVariable})
			}
		case *ast.BlockStmt:
			for _, c := range n.Body {
				visit(c)
			}
		case *ast.OpaqueStmt:
			for _, c := range n.Children {
				visit(c)
			}
		}
	}
	for _, s := range prog.Body {
		visit(s)
	}
	return out
}

// collectEntryNames gathers every top-level binding that SPEC_FULL.md §4.6
// treats as an entry point: a configurable allow-list of spellings, any
// declaration wrapped in a frontend-preserved export form
// (`export function f() {}`/`export const f = …`), and CommonJS
// `module.exports.f = …`/`exports.f = …` assignments.
func collectEntryNames(prog *ast.Program, allow []string, graph *flow.Graph) map[*ast.Name]struct{} {
	entries := make(map[*ast.Name]struct{})

	allowSet := make(map[string]struct{}, len(allow))
	for _, a := range allow {
		allowSet[a] = struct{}{}
	}
	if len(allowSet) > 0 {
		for _, name := range graph.Names() {
			if _, ok := allowSet[name.Spelling]; ok {
				entries[name] = struct{}{}
			}
		}
	}

	var visit func(s ast.Stmt)
	visit = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.ExprStmt:
			collectModuleExportsAssignment(n.X, entries)
		case *ast.OpaqueStmt:
			if strings.HasPrefix(n.Kind, "export") {
				for _, c := range n.Children {
					collectExportedDecl(c, entries)
				}
			}
			for _, c := range n.Children {
				visit(c)
			}
		case *ast.BlockStmt:
			for _, c := range n.Body {
				visit(c)
			}
		}
	}
	for _, s := range prog.Body {
		visit(s)
	}
	return entries
}

func collectExportedDecl(s ast.Stmt, out map[*ast.Name]struct{}) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		if fn, ok := n.X.(*ast.FunctionExpr); ok && fn.Name != nil {
			out[fn.Name] = struct{}{}
		}
	case *ast.VarDecl:
		if n.Name != nil {
			out[n.Name] = struct{}{}
		}
	case *ast.BlockStmt:
		for _, c := range n.Body {
			collectExportedDecl(c, out)
		}
	}
}

// collectModuleExportsAssignment recognizes `module.exports.f = expr` and
// `exports.f = expr`, binding the right-hand identifier's Name (when it
// resolves to one) as an entry point.
func collectModuleExportsAssignment(e ast.Expr, out map[*ast.Name]struct{}) {
	bin, ok := e.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAssign {
		return
	}
	me, ok := bin.Left.(*ast.MemberExpr)
	if !ok || !isExportsMember(me) {
		return
	}
	if id, ok := bin.Right.(*ast.IdentExpr); ok && id.Ref != nil {
		out[id.Ref] = struct{}{}
	}
}

func isExportsMember(me *ast.MemberExpr) bool {
	switch obj := me.Object.(type) {
	case *ast.IdentExpr:
		return obj.Spelling == "exports"
	case *ast.MemberExpr:
		if obj.Property != "exports" {
			return false
		}
		id, ok := obj.Object.(*ast.IdentExpr)
		return ok && id.Spelling == "module"
	default:
		return false
	}
}
