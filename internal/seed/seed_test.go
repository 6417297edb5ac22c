package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/flow"
)

// harness bundles a fresh Walker plus its NameTable so scenario tests can
// build small hand-written ASTs concisely.
type harness struct {
	t     *testing.T
	names *ast.NameTable
	graph *flow.Graph
	w     *Walker
}

func newHarness(t *testing.T) *harness {
	names := ast.NewNameTable()
	graph := flow.NewGraph()
	return &harness{t: t, names: names, graph: graph, w: New(graph, names, nil)}
}

func (h *harness) ident(spelling string) *ast.IdentExpr {
	return &ast.IdentExpr{Spelling: spelling}
}

func (h *harness) assign(target ast.Expr, value ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{X: &ast.BinaryExpr{Op: ast.OpAssign, Left: target, Right: value}}
}

func functionsOf(t *testing.T, names *ast.NameTable, graph *flow.Graph, spelling string) []*ast.FunctionExpr {
	name, ok := names.Lookup(spelling)
	require.True(t, ok, "name %q was never interned", spelling)
	node, ok := graph.Lookup(name)
	require.True(t, ok, "name %q has no bound node", spelling)
	return node.Functions()
}

// Scenario 1: direct binding. `var a = f; var b = a;`
// Per §9's preserved gap, var-decl initializers are never connected, so
// functions(nodes[a]) is also empty here — there is no assignment edge,
// only two var declarations.
func TestScenario_DirectBinding_VarDeclGapLeavesBothEmpty(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("a"), Init: f},
		&ast.VarDecl{Name: h.names.Intern("b"), Init: h.ident("a")},
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	assert.Empty(t, functionsOf(t, h.names, h.graph, "a"))
	assert.Empty(t, functionsOf(t, h.names, h.graph, "b"))
}

// The same scenario, but with explicit assignments instead of var-decl
// initializers, shows the edge the gap omits: functions DO propagate
// through `a = f; b = a;`.
func TestScenario_DirectBinding_WithExplicitAssignment(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("a")},
		&ast.VarDecl{Name: h.names.Intern("b")},
		h.assign(h.ident("a"), f),
		h.assign(h.ident("b"), h.ident("a")),
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	fns := functionsOf(t, h.names, h.graph, "a")
	require.Len(t, fns, 1)
	assert.Same(t, f, fns[0])

	fns = functionsOf(t, h.names, h.graph, "b")
	require.Len(t, fns, 1)
	assert.Same(t, f, fns[0])
}

// Scenario 2: object member propagation.
// `var o = { m: f }; var p; o = { m: f }; p = o;` (explicit assignments add
// the edges the var-decl gap omits).
func TestScenario_ObjectMemberPropagation(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}

	obj := &ast.ObjectExpr{Props: []ast.Property{
		{Label: ast.PropertyLabel{Static: "m"}, Value: f},
	}}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("o"), Init: obj},
		&ast.VarDecl{Name: h.names.Intern("p")},
		h.assign(h.ident("o"), obj),
		h.assign(h.ident("p"), h.ident("o")),
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	oName, _ := h.names.Lookup("o")
	oNode, _ := h.graph.Lookup(oName)
	om, ok := oNode.Member("m")
	require.True(t, ok)
	assert.True(t, om.HasFunction(f))

	pName, _ := h.names.Lookup("p")
	pNode, _ := h.graph.Lookup(pName)
	pm, ok := pNode.Member("m")
	require.True(t, ok)
	assert.True(t, pm.HasFunction(f))
}

// Scenario 3: dynamic access contaminates.
// `var o = { m: f }; o[k];` via explicit assignment for the object literal.
func TestScenario_DynamicAccessContaminates(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}
	obj := &ast.ObjectExpr{Props: []ast.Property{
		{Label: ast.PropertyLabel{Static: "m"}, Value: f},
	}}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("o")},
		h.assign(h.ident("o"), obj),
		&ast.ExprStmt{X: &ast.IndexExpr{Object: h.ident("o"), Index: h.ident("k")}},
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	oName, _ := h.names.Lookup("o")
	oNode, _ := h.graph.Lookup(oName)
	dyn, ok := oNode.DynamicMember()
	require.True(t, ok)
	assert.True(t, dyn.HasFunction(f))
}

// Scenario 4: logical-or union.
// `var a = f; var b = g; var c = (a || b);` seeded with explicit assignment
// edges so a and b carry their functions.
func TestScenario_LogicalOrUnion(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}
	g := &ast.FunctionExpr{Name: h.names.Intern("g")}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("a")},
		&ast.VarDecl{Name: h.names.Intern("b")},
		&ast.VarDecl{Name: h.names.Intern("c")},
		h.assign(h.ident("a"), f),
		h.assign(h.ident("b"), g),
		h.assign(h.ident("c"), &ast.BinaryExpr{
			Op:    ast.OpLogicalOr,
			Left:  h.ident("a"),
			Right: h.ident("b"),
		}),
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	fns := functionsOf(t, h.names, h.graph, "c")
	require.Len(t, fns, 2)
	assert.Contains(t, fns, f)
	assert.Contains(t, fns, g)
}

// Scenario 5: unresolved name. `undeclaredSymbol;`
func TestScenario_UnresolvedNameYieldsDynamicNode(t *testing.T) {
	h := newHarness(t)
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{X: h.ident("undeclaredSymbol")},
	}}

	before := len(h.graph.Names())
	h.w.Seed(prog)
	h.graph.Drain()

	_, ok := h.names.Lookup("undeclaredSymbol")
	assert.False(t, ok, "an unresolved reference must not create a Name binding")
	assert.Equal(t, before, len(h.graph.Names()), "no new graph binding should appear")

	res := h.w.walkExpr(h.ident("undeclaredSymbol"))
	require.Len(t, res, 1)
	assert.Same(t, h.graph.DynamicNode(), res[0])
}

// Scenario 6: bidirectional member after connect.
// o1 = { m: f }, o2 = {}, then o2 = o1.
func TestScenario_BidirectionalMemberAfterConnect(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}
	o1Obj := &ast.ObjectExpr{Props: []ast.Property{
		{Label: ast.PropertyLabel{Static: "m"}, Value: f},
	}}
	o2Obj := &ast.ObjectExpr{}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("o1")},
		&ast.VarDecl{Name: h.names.Intern("o2")},
		h.assign(h.ident("o1"), o1Obj),
		h.assign(h.ident("o2"), o2Obj),
		h.assign(h.ident("o2"), h.ident("o1")),
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	o1Name, _ := h.names.Lookup("o1")
	o1Node, _ := h.graph.Lookup(o1Name)
	o2Name, _ := h.names.Lookup("o2")
	o2Node, _ := h.graph.Lookup(o2Name)

	o1m, ok := o1Node.Member("m")
	require.True(t, ok)
	o2m, ok := o2Node.Member("m")
	require.True(t, ok)
	assert.True(t, o2m.HasFunction(f))

	other := &ast.FunctionExpr{}
	o2m.AddFunction(other)
	h.graph.Drain()
	assert.True(t, o1m.HasFunction(other), "a function added via o2's mirrored member must reach o1's")
}

func TestCallExpr_RecursesIntoCalleeAndArgsButProducesNoResult(t *testing.T) {
	h := newHarness(t)
	f := &ast.FunctionExpr{Name: h.names.Intern("f")}

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("x")},
		&ast.ExprStmt{X: &ast.CallExpr{
			Callee: h.ident("g"),
			Args:   []ast.Expr{h.assign(h.ident("x"), f).X},
		}},
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	fns := functionsOf(t, h.names, h.graph, "x")
	require.Len(t, fns, 1)
	assert.Same(t, f, fns[0])
}

func TestArrowFunction_SeedsWithoutNameBinding(t *testing.T) {
	h := newHarness(t)
	arrow := &ast.FunctionExpr{} // unnamed, as an arrow function desugars to

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Name: h.names.Intern("cb"), Init: arrow},
		h.assign(h.ident("cb"), arrow),
	}}
	h.w.Seed(prog)
	h.graph.Drain()

	fns := functionsOf(t, h.names, h.graph, "cb")
	require.Len(t, fns, 1)
	assert.Same(t, arrow, fns[0])
}
