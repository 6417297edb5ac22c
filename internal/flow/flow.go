// Package flow implements the value-flow (points-to) graph: the node graph,
// its event bus, and the FIFO propagation engine that saturates it.
//
// Everything here is the invariant-bearing core: flow-insensitive,
// field-sensitive constraint propagation over a finite fact lattice
// (function identities and syntactic member names present in the program).
// internal/seed is the only caller that mutates a Graph; internal/prune is
// the only caller that reads one back out.
package flow

import "github.com/tavola/flowgraph/internal/ast"

// ----------------------------------------------------------------------------
// Facts
// ----------------------------------------------------------------------------

type factKind uint8

const (
	factFunction factKind = iota
	factParameter
	factReturnValue
	factDynamicMember
	factMember
)

// fact is one monotone unit of information recorded on a Node, in the order
// it was created. Replaying a node's fact log in order is what lets a newly
// installed Handler observe history exactly once, in creation order.
type fact struct {
	kind  factKind
	fn    *ast.FunctionExpr
	index int
	name  string
	node  *Node
}

// ----------------------------------------------------------------------------
// Handler
// ----------------------------------------------------------------------------

// Handler is the five-callback event interface a Node's growth is reported
// through. Every field is optional; a nil callback is treated as a no-op.
type Handler struct {
	FunctionAdded     func(fn *ast.FunctionExpr)
	ParameterAdded    func(index int, param *Node)
	ReturnValueAdded  func(rv *Node)
	DynamicMemberAdded func(dyn *Node)
	MemberAdded       func(name string, member *Node)
}

// ----------------------------------------------------------------------------
// Node
// ----------------------------------------------------------------------------

// Node is the central entity of the analysis: an abstract value with a
// function set, named and dynamic members, indexed parameters, an optional
// return value, outgoing successor edges, and subscribed handlers.
type Node struct {
	graph  *Graph
	Origin any // back-reference to the AST construct that introduced this node; diagnostic only

	functionSet map[*ast.FunctionExpr]struct{}
	members     map[string]*Node
	dynamic     *Node
	parameters  []*Node // index -> Node; entries may be nil (gaps)
	returnValue *Node
	successors  map[*Node]struct{}

	handlers []Handler
	facts    []fact // creation-ordered log, replayed to newly added handlers
}

// AddFunction adds fn to the node's function set. Returns true if fn was
// newly added. Adding a function that is already present is a no-op.
func (n *Node) AddFunction(fn *ast.FunctionExpr) bool {
	if _, ok := n.functionSet[fn]; ok {
		return false
	}
	n.functionSet[fn] = struct{}{}
	n.recordFact(fact{kind: factFunction, fn: fn})
	return true
}

// HasFunction reports whether fn is currently in the node's function set.
func (n *Node) HasFunction(fn *ast.FunctionExpr) bool {
	_, ok := n.functionSet[fn]
	return ok
}

// Functions returns the node's function set in the order each function was
// added.
func (n *Node) Functions() []*ast.FunctionExpr {
	var out []*ast.FunctionExpr
	for _, f := range n.facts {
		if f.kind == factFunction {
			out = append(out, f.fn)
		}
	}
	return out
}

// GetMember returns the child Node for name, creating it on first request.
// Structural accessors are idempotent: repeated calls with the same name
// always return the same Node.
func (n *Node) GetMember(name string) *Node {
	if v, ok := n.members[name]; ok {
		return v
	}
	v := n.graph.newNode(nil)
	n.members[name] = v
	n.recordFact(fact{kind: factMember, name: name, node: v})
	return v
}

// Member returns the existing child Node for name without creating one.
func (n *Node) Member(name string) (*Node, bool) {
	v, ok := n.members[name]
	return v, ok
}

// MemberNames returns the node's member names in the order each member was
// created.
func (n *Node) MemberNames() []string {
	var out []string
	for _, f := range n.facts {
		if f.kind == factMember {
			out = append(out, f.name)
		}
	}
	return out
}

// GetDynamicMember returns the dynamic-member child, creating it on first
// request. On creation it installs an internal handler on n so that every
// named member (name, v) — past or future — is connected bidirectionally
// with the dynamic child, encoding "the dynamic sink aliases all named
// members."
func (n *Node) GetDynamicMember() *Node {
	if n.dynamic != nil {
		return n.dynamic
	}
	d := n.graph.newNode(nil)
	n.dynamic = d
	n.recordFact(fact{kind: factDynamicMember, node: d})
	n.AddHandler(Handler{
		MemberAdded: func(_ string, v *Node) {
			connectBoth(d, v)
		},
	})
	return d
}

// DynamicMember returns the existing dynamic-member child, if any, without
// creating one.
func (n *Node) DynamicMember() (*Node, bool) {
	if n.dynamic == nil {
		return nil, false
	}
	return n.dynamic, true
}

// GetParameter returns the parameter Node at index i, creating it (and
// padding any absent lower indices) on first request.
func (n *Node) GetParameter(i int) *Node {
	for len(n.parameters) <= i {
		n.parameters = append(n.parameters, nil)
	}
	if n.parameters[i] != nil {
		return n.parameters[i]
	}
	p := n.graph.newNode(nil)
	n.parameters[i] = p
	n.recordFact(fact{kind: factParameter, index: i, node: p})
	return p
}

// Parameters returns the node's parameter list, index-aligned; gap entries
// are nil.
func (n *Node) Parameters() []*Node {
	out := make([]*Node, len(n.parameters))
	copy(out, n.parameters)
	return out
}

// GetReturnValue returns the return-value Node, creating it on first
// request.
func (n *Node) GetReturnValue() *Node {
	if n.returnValue != nil {
		return n.returnValue
	}
	rv := n.graph.newNode(nil)
	n.returnValue = rv
	n.recordFact(fact{kind: factReturnValue, node: rv})
	return rv
}

// ReturnValue returns the existing return-value Node, if any, without
// creating one.
func (n *Node) ReturnValue() (*Node, bool) {
	if n.returnValue == nil {
		return nil, false
	}
	return n.returnValue, true
}

// Successors returns the node's outgoing edges.
func (n *Node) Successors() []*Node {
	out := make([]*Node, 0, len(n.successors))
	for s := range n.successors {
		out = append(out, s)
	}
	return out
}

// ConnectTo adds a directed edge self -> other. Edges are a set: connecting
// an already-present edge is a no-op. On a successful add it installs the
// paired forward/reverse handlers that realize §4.2's propagation contract:
// functions flow forward only; members alias bidirectionally; parameters
// and return values follow contravariant call-site conventions.
func (n *Node) ConnectTo(other *Node) {
	if other == nil {
		return
	}
	if _, ok := n.successors[other]; ok {
		return
	}
	n.successors[other] = struct{}{}

	// Forward: n is the source, other is the sink.
	n.AddHandler(Handler{
		FunctionAdded: func(fn *ast.FunctionExpr) {
			other.AddFunction(fn)
		},
		ParameterAdded: func(i int, a *Node) {
			// Whatever reaches n's parameter slot also reaches other's
			// parameter slot at the same index: the edge runs a -> other's
			// parameter.
			a.ConnectTo(other.GetParameter(i))
		},
		ReturnValueAdded: func(v *Node) {
			// Callee returns flow from other's return value into n's.
			other.GetReturnValue().ConnectTo(v)
		},
		DynamicMemberAdded: func(d *Node) {
			connectBoth(other.GetDynamicMember(), d)
		},
		MemberAdded: func(name string, v *Node) {
			connectBoth(v, other.GetMember(name))
		},
	})

	// Reverse: complementary facts discovered on other must still reach n.
	other.AddHandler(Handler{
		ReturnValueAdded: func(v *Node) {
			v.ConnectTo(n.GetReturnValue())
		},
		DynamicMemberAdded: func(d *Node) {
			connectBoth(n.GetDynamicMember(), d)
		},
		MemberAdded: func(name string, v *Node) {
			connectBoth(n.GetMember(name), v)
		},
	})
}

// AddHandler subscribes h to this node's growth. Newly subscribed handlers
// are retro-notified of every fact already present, in the order those
// facts were created — this is what makes the propagation rules
// order-independent: installing an edge late still observes everything
// that happened earlier.
func (n *Node) AddHandler(h Handler) {
	n.handlers = append(n.handlers, h)
	for _, f := range n.facts {
		n.dispatch(h, f)
	}
}

func (n *Node) recordFact(f fact) {
	n.facts = append(n.facts, f)
	for _, h := range n.handlers {
		n.dispatch(h, f)
	}
}

// dispatch enqueues h's callback for f, deferring the actual call onto the
// graph's worklist so no handler ever observes a half-grown node.
func (n *Node) dispatch(h Handler, f fact) {
	switch f.kind {
	case factFunction:
		if h.FunctionAdded != nil {
			cb, fn := h.FunctionAdded, f.fn
			n.graph.enqueue(func() { cb(fn) })
		}
	case factParameter:
		if h.ParameterAdded != nil {
			cb, i, node := h.ParameterAdded, f.index, f.node
			n.graph.enqueue(func() { cb(i, node) })
		}
	case factReturnValue:
		if h.ReturnValueAdded != nil {
			cb, node := h.ReturnValueAdded, f.node
			n.graph.enqueue(func() { cb(node) })
		}
	case factDynamicMember:
		if h.DynamicMemberAdded != nil {
			cb, node := h.DynamicMemberAdded, f.node
			n.graph.enqueue(func() { cb(node) })
		}
	case factMember:
		if h.MemberAdded != nil {
			cb, name, node := h.MemberAdded, f.name, f.node
			n.graph.enqueue(func() { cb(name, node) })
		}
	}
}

// connectBoth installs a full edge in each direction, the mechanism §4.2
// calls "bidirectionally connect": members are aliased, not merely linked,
// so reads and writes through either node observe the same fact set.
func connectBoth(x, y *Node) {
	x.ConnectTo(y)
	y.ConnectTo(x)
}

// ----------------------------------------------------------------------------
// Graph
// ----------------------------------------------------------------------------

// Graph owns the Name -> Node bindings, the single per-instance dynamic
// sink, and the FIFO worklist that drives propagation to a fixed point.
//
// A Graph is not safe for concurrent use; internal/driver gives each
// concurrently analyzed file its own Graph and merges results afterward
// rather than sharing one across goroutines.
type Graph struct {
	nodes   map[*ast.Name]*Node
	dynamic *Node

	queue []func()
	head  int
}

// NewGraph creates an empty graph with its own dynamic-node sentinel.
func NewGraph() *Graph {
	g := &Graph{nodes: make(map[*ast.Name]*Node)}
	g.dynamic = g.newNode(nil)
	return g
}

func (g *Graph) newNode(origin any) *Node {
	return &Node{
		graph:       g,
		Origin:      origin,
		functionSet: make(map[*ast.FunctionExpr]struct{}),
		members:     make(map[string]*Node),
		successors:  make(map[*Node]struct{}),
	}
}

// NewNode allocates a fresh, unbound Node with the given diagnostic origin.
// Used by the seeding walker for function definitions, object literals, and
// variable declarations — every construct that "creates a fresh Node" per
// §4.3.
func (g *Graph) NewNode(origin any) *Node {
	return g.newNode(origin)
}

// DynamicNode returns this graph's single dynamic sink.
func (g *Graph) DynamicNode() *Node {
	return g.dynamic
}

// Bind records that name resolves to n. Re-declaration is not modeled: a
// second Bind for the same Name simply overwrites the first, so each Name
// maps to exactly one Node: the one from the last Bind. The walker calls
// Bind for every variable declaration and named function it visits, so a
// redeclared spelling ends up bound to its last declaration's Node.
func (g *Graph) Bind(name *ast.Name, n *Node) {
	g.nodes[name] = n
}

// Lookup returns the Node bound to name, if any.
func (g *Graph) Lookup(name *ast.Name) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names returns every Name currently bound in the graph. Order is
// unspecified.
func (g *Graph) Names() []*ast.Name {
	out := make([]*ast.Name, 0, len(g.nodes))
	for name := range g.nodes {
		out = append(out, name)
	}
	return out
}

func (g *Graph) enqueue(fn func()) {
	g.queue = append(g.queue, fn)
}

// Drain runs the worklist to quiescence: it removes and executes callbacks
// strictly FIFO until none remain, including callbacks enqueued by
// callbacks that ran earlier in the same drain. Termination is guaranteed
// because the fact lattice is finite (bounded by the member names and
// function identities the program text contains).
func (g *Graph) Drain() {
	for g.head < len(g.queue) {
		fn := g.queue[g.head]
		g.queue[g.head] = nil
		g.head++
		fn()
	}
}
