// Package seed implements the AST seeding walker (§4.3): a single pre-order
// traversal of a program's statements that primes an internal/flow.Graph
// with the nodes and edges the propagation engine then saturates.
//
// The walker is flow- and context-insensitive by construction: function
// bodies are entered through the same generic recursion as any other
// statement, and there is no per-call-site duplication of anything.
package seed

import (
	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/diagnostic"
	"github.com/tavola/flowgraph/internal/flow"
)

// Walker holds the single piece of per-traversal state the core needs: the
// graph being seeded, the name table used to resolve identifiers, and
// (optionally) a diagnostic sink for the three §7 error kinds.
type Walker struct {
	Graph *flow.Graph
	Names *ast.NameTable
	Diags *diagnostic.Bag
}

// New creates a Walker over graph, resolving identifiers through names.
// diags may be nil to discard diagnostics.
func New(graph *flow.Graph, names *ast.NameTable, diags *diagnostic.Bag) *Walker {
	return &Walker{Graph: graph, Names: names, Diags: diags}
}

// Seed walks prog in pre-order, priming graph with every node and edge the
// program's syntax implies. It does not drain the worklist — call
// Graph.Drain afterward (or use pkg/api.Analyze, which does both).
func (w *Walker) Seed(prog *ast.Program) {
	for _, stmt := range prog.Body {
		w.walkStmt(stmt)
	}
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (w *Walker) walkStmt(s ast.Stmt) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.ExprStmt:
		w.walkExpr(n.X)
	case *ast.BlockStmt:
		for _, stmt := range n.Body {
			w.walkStmt(stmt)
		}
	case *ast.VarDecl:
		w.walkVarDecl(n)
	case *ast.ReturnStmt:
		if n.Value != nil {
			w.walkExpr(n.Value)
		}
	case *ast.ThrowStmt:
		w.walkExpr(n.Value)
	case *ast.IfStmt:
		w.walkExpr(n.Cond)
		w.walkStmt(n.Then)
		w.walkStmt(n.Else)
	case *ast.ForStmt:
		w.walkStmt(n.Init)
		if n.Cond != nil {
			w.walkExpr(n.Cond)
		}
		w.walkStmt(n.Update)
		w.walkStmt(n.Body)
	case *ast.WhileStmt:
		w.walkExpr(n.Cond)
		w.walkStmt(n.Body)
	case *ast.TryStmt:
		w.walkStmt(n.Body)
		w.walkStmt(n.Catch)
		w.walkStmt(n.Final)
	case *ast.EmptyStmt:
		// nothing to seed
	case *ast.OpaqueStmt:
		w.diagUnmodeled(n.Pos, n.Kind)
		for _, child := range n.Children {
			w.walkStmt(child)
		}
		for _, e := range n.Exprs {
			w.walkExpr(e)
		}
	default:
		w.diagUnmodeled(ast.Pos{}, "unknown-stmt")
	}
}

// walkVarDecl implements §4.3's variable-declaration rule, including the
// deliberately preserved gap: the initializer is walked (so nested facts
// still seed) but its result is never connected into the declared Name's
// Node.
func (w *Walker) walkVarDecl(n *ast.VarDecl) {
	if n.Name == nil {
		w.Diags.MalformedAST(n.Pos, "variable declaration with no bound name")
		if n.Init != nil {
			w.walkExpr(n.Init)
		}
		return
	}
	node := w.Graph.NewNode(n)
	w.Graph.Bind(n.Name, node)
	if n.Init != nil {
		// Evaluated for its side-seeding effects only; the result is not
		// connected to node. See §9 Open Questions: the source exhibits
		// this gap and it is preserved verbatim, not fixed.
		w.walkExpr(n.Init)
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// walkExpr visits e and returns the resultNodes it produces, per §4.3.
func (w *Walker) walkExpr(e ast.Expr) []*flow.Node {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.BinaryExpr:
		return w.walkBinary(n)
	case *ast.UnaryExpr:
		w.walkExpr(n.Operand)
		return nil
	case *ast.FunctionExpr:
		return w.walkFunction(n)
	case *ast.ObjectExpr:
		return w.walkObject(n)
	case *ast.IdentExpr:
		return w.walkIdent(n)
	case *ast.MemberExpr:
		return w.walkMember(n)
	case *ast.IndexExpr:
		return w.walkIndex(n)
	case *ast.StringLiteral:
		return nil
	case *ast.Literal:
		return nil
	case *ast.CallExpr:
		return w.walkCall(n)
	case *ast.OpaqueExpr:
		w.diagUnmodeled(n.Pos, n.Kind)
		var last []*flow.Node
		for _, child := range n.Children {
			last = w.walkExpr(child)
		}
		return last
	default:
		w.diagUnmodeled(ast.Pos{}, "unknown-expr")
		return nil
	}
}

// walkBinary implements assignment, logical-or, and the opaque fallback for
// every other binary operator (§4.3).
func (w *Walker) walkBinary(n *ast.BinaryExpr) []*flow.Node {
	switch n.Op {
	case ast.OpAssign:
		lhs := w.walkExpr(n.Left)
		rhs := w.walkExpr(n.Right)
		for _, l := range lhs {
			for _, r := range rhs {
				r.ConnectTo(l)
			}
		}
		return lhs
	case ast.OpLogicalOr:
		left := w.walkExpr(n.Left)
		right := w.walkExpr(n.Right)
		return union(left, right)
	default:
		w.walkExpr(n.Left)
		return w.walkExpr(n.Right)
	}
}

// walkFunction implements §4.3's function-definition rule. It applies
// uniformly to declarations, function expressions, and arrow functions
// (SPEC_FULL.md §4.3's supplemental arrow-function rule): only named
// functions acquire a Name binding.
func (w *Walker) walkFunction(n *ast.FunctionExpr) []*flow.Node {
	node := w.Graph.NewNode(n)
	if n.Name != nil {
		w.Graph.Bind(n.Name, node)
	}
	node.AddFunction(n)
	w.walkStmt(n.Body)
	return []*flow.Node{node}
}

// walkObject implements §4.3's object-literal rule.
func (w *Walker) walkObject(n *ast.ObjectExpr) []*flow.Node {
	node := w.Graph.NewNode(n)
	for _, prop := range n.Props {
		values := w.walkExpr(prop.Value)
		if !prop.Label.IsComputed {
			member := node.GetMember(prop.Label.Static)
			for _, v := range values {
				v.ConnectTo(member)
			}
			continue
		}
		w.walkExpr(prop.Label.Computed)
		dyn := node.GetDynamicMember()
		for _, v := range values {
			v.ConnectTo(dyn)
		}
	}
	return []*flow.Node{node}
}

// walkIdent implements §4.3's unqualified name-reference rule: an unknown
// name resolves to the dynamic node, never a failure (§7).
func (w *Walker) walkIdent(n *ast.IdentExpr) []*flow.Node {
	name := n.Ref
	if name == nil && w.Names != nil {
		name, _ = w.Names.Lookup(n.Spelling)
	}
	if name != nil {
		if node, ok := w.Graph.Lookup(name); ok {
			return []*flow.Node{node}
		}
	}
	w.Diags.UnknownName(n.Pos, n.Spelling)
	return []*flow.Node{w.Graph.DynamicNode()}
}

// walkMember implements §4.3's qualified-reference rule.
func (w *Walker) walkMember(n *ast.MemberExpr) []*flow.Node {
	objs := w.walkExpr(n.Object)
	out := make([]*flow.Node, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.GetMember(n.Property))
	}
	return out
}

// walkIndex implements §4.3's array-access rule: a string-literal index
// resolves statically, like a member reference; anything else resolves to
// the dynamic member.
func (w *Walker) walkIndex(n *ast.IndexExpr) []*flow.Node {
	objs := w.walkExpr(n.Object)
	if lit, ok := n.Index.(*ast.StringLiteral); ok {
		out := make([]*flow.Node, 0, len(objs))
		for _, o := range objs {
			out = append(out, o.GetMember(lit.Value))
		}
		return out
	}
	w.walkExpr(n.Index)
	out := make([]*flow.Node, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.GetDynamicMember())
	}
	return out
}

// walkCall implements SPEC_FULL.md §4.3's supplemental call-expression
// rule: no dedicated propagation connects arguments to parameters or the
// call's value to the callee's return value (that is the distilled core's
// documented §9 gap); the callee and each argument are still walked
// generically so nested assignments keep seeding.
func (w *Walker) walkCall(n *ast.CallExpr) []*flow.Node {
	w.walkExpr(n.Callee)
	for _, arg := range n.Args {
		w.walkExpr(arg)
	}
	return nil
}

func (w *Walker) diagUnmodeled(pos ast.Pos, kind string) {
	w.Diags.UnmodeledConstruct(pos, kind)
}

// union returns the set union of a and b, preserving a's order then b's,
// without duplicating a *flow.Node already present.
func union(a, b []*flow.Node) []*flow.Node {
	if len(b) == 0 {
		return a
	}
	seen := make(map[*flow.Node]struct{}, len(a)+len(b))
	out := make([]*flow.Node, 0, len(a)+len(b))
	for _, n := range a {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, n := range b {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
