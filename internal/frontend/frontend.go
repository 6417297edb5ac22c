// Package frontend parses JavaScript/TypeScript source text into the
// internal/ast tree the seeding walker consumes.
//
// Parsing is not part of the invariant-bearing core (§1 of the
// specification calls AST construction an external collaborator) but is
// required to run the analyzer against real source. This package uses
// tree-sitter to produce a concrete syntax tree and then walks it,
// translating every node kind §3 names into an internal/ast node. Anything
// it cannot translate becomes an OpaqueExpr/OpaqueStmt placeholder so the
// seeding walker's generic-recursion fallback still applies, and records an
// unmodeled-construct diagnostic rather than failing.
package frontend

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/diagnostic"
)

// Language identifies which tree-sitter grammar to parse a file with.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
)

// DetectLanguage picks a Language from a file extension, defaulting to
// JavaScript for anything unrecognized (JavaScript is close enough to a
// syntactic subset of TypeScript that the typescript grammar could also
// parse it, but using the matching grammar keeps error recovery tighter).
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return LangTypeScript
	default:
		return LangJavaScript
	}
}

// Parser wraps a tree-sitter parser and translates its output into
// internal/ast. A Parser is not safe for concurrent use; internal/driver
// gives each worker its own Parser.
type Parser struct {
	ts    *sitter.Parser
	Names *ast.NameTable
}

// NewParser creates a Parser that interns identifiers through names. If
// names is nil, a fresh NameTable is created.
func NewParser(names *ast.NameTable) *Parser {
	if names == nil {
		names = ast.NewNameTable()
	}
	return &Parser{ts: sitter.NewParser(), Names: names}
}

// ParseSource parses src as lang and translates it into an *ast.Program.
// When tree-sitter produces no tree at all, that is recorded on diags (if
// non-nil) as CodeParseError; it is never returned as a Go error. Syntax
// errors tree-sitter recovers from arrive as ERROR nodes, which translate
// like any other unmodeled construct — the translator does its best with
// whatever tree-sitter recovers, consistent with §7's "no exceptions
// propagate out."
func (p *Parser) ParseSource(src []byte, lang Language, diags *diagnostic.Bag) *ast.Program {
	var tsLang *sitter.Language
	switch lang {
	case LangTypeScript:
		tsLang = typescript.GetLanguage()
	default:
		tsLang = javascript.GetLanguage()
	}
	p.ts.SetLanguage(tsLang)

	tree := p.ts.Parse(nil, src)
	if tree == nil {
		diags.ParseError(ast.Pos{}, "tree-sitter returned no parse tree")
		return &ast.Program{}
	}
	defer tree.Close()

	root := tree.RootNode()
	t := &translator{src: src, names: p.Names, diags: diags}
	return &ast.Program{Body: t.translateBody(root)}
}

// ----------------------------------------------------------------------------
// Translation
// ----------------------------------------------------------------------------

type translator struct {
	src   []byte
	names *ast.NameTable
	diags *diagnostic.Bag
}

func (t *translator) pos(n *sitter.Node) ast.Pos {
	if n == nil {
		return ast.Pos{}
	}
	p := n.StartPoint()
	return ast.Pos{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (t *translator) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if end > uint32(len(t.src)) || start > end {
		return ""
	}
	return string(t.src[start:end])
}

// translateBody translates every named child of a program/block-like node
// into statements.
func (t *translator) translateBody(n *sitter.Node) []ast.Stmt {
	var out []ast.Stmt
	if n == nil {
		return out
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if s := t.translateStmt(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t *translator) translateStmt(n *sitter.Node) ast.Stmt {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "expression_statement":
		return &ast.ExprStmt{Pos: t.pos(n), X: t.translateExpr(n.NamedChild(0))}
	case "statement_block":
		return &ast.BlockStmt{Body: t.translateBody(n)}
	case "variable_declaration", "lexical_declaration":
		return t.translateVarDeclGroup(n)
	case "function_declaration", "generator_function_declaration":
		return &ast.ExprStmt{Pos: t.pos(n), X: t.translateFunction(n)}
	case "return_statement":
		var val ast.Expr
		if v := n.NamedChild(0); v != nil {
			val = t.translateExpr(v)
		}
		return &ast.ReturnStmt{Pos: t.pos(n), Value: val}
	case "throw_statement":
		return &ast.ThrowStmt{Pos: t.pos(n), Value: t.translateExpr(n.NamedChild(0))}
	case "if_statement":
		st := &ast.IfStmt{Pos: t.pos(n)}
		st.Cond = t.translateExpr(n.ChildByFieldName("condition"))
		st.Then = t.translateStmt(n.ChildByFieldName("consequence"))
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			st.Else = t.translateStmt(alt)
		}
		return st
	case "for_statement":
		st := &ast.ForStmt{Pos: t.pos(n)}
		st.Init = t.translateStmt(n.ChildByFieldName("initializer"))
		if c := n.ChildByFieldName("condition"); c != nil {
			st.Cond = t.translateExpr(c)
		}
		st.Update = t.translateStmt(n.ChildByFieldName("increment"))
		st.Body = t.translateStmt(n.ChildByFieldName("body"))
		return st
	case "while_statement":
		return &ast.WhileStmt{
			Pos:  t.pos(n),
			Cond: t.translateExpr(n.ChildByFieldName("condition")),
			Body: t.translateStmt(n.ChildByFieldName("body")),
		}
	case "do_statement":
		return &ast.WhileStmt{
			Pos:  t.pos(n),
			Cond: t.translateExpr(n.ChildByFieldName("condition")),
			Body: t.translateStmt(n.ChildByFieldName("body")),
		}
	case "try_statement":
		st := &ast.TryStmt{Pos: t.pos(n)}
		st.Body = t.translateStmt(n.ChildByFieldName("body"))
		if h := n.ChildByFieldName("handler"); h != nil {
			st.Catch = t.translateStmt(h.ChildByFieldName("body"))
		}
		if f := n.ChildByFieldName("finalizer"); f != nil {
			st.Final = t.translateStmt(f)
		}
		return st
	case "empty_statement":
		return &ast.EmptyStmt{Pos: t.pos(n)}
	case "interface_declaration", "type_alias_declaration":
		// TypeScript-only type declarations are stripped.
		return nil
	default:
		t.diags.UnmodeledConstruct(t.pos(n), n.Type())
		return &ast.OpaqueStmt{
			Pos:      t.pos(n),
			Kind:     n.Type(),
			Children: t.translateBody(n),
		}
	}
}

// translateVarDeclGroup handles `var`/`let`/`const` declarations, which
// tree-sitter groups as a declaration node wrapping one or more
// variable_declarator children (`var a = 1, b = 2;`). Each declarator
// becomes its own ast.VarDecl wrapped in a BlockStmt when there is more
// than one, matching how the seeding walker expects one VarDecl per bound
// name.
func (t *translator) translateVarDeclGroup(n *sitter.Node) ast.Stmt {
	var decls []ast.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		decls = append(decls, t.translateDeclarator(d))
	}
	if len(decls) == 1 {
		return decls[0]
	}
	return &ast.BlockStmt{Body: decls}
}

func (t *translator) translateDeclarator(n *sitter.Node) ast.Stmt {
	id := n.ChildByFieldName("name")
	if id == nil {
		t.diags.MalformedAST(t.pos(n), "variable declarator with no bound name")
		return &ast.EmptyStmt{Pos: t.pos(n)}
	}

	// Destructuring patterns (§4.3 supplemental rule): desugar into one
	// VarDecl per bound name, with no initializer edge, and record the
	// precision loss.
	switch id.Type() {
	case "object_pattern", "array_pattern":
		names := t.collectPatternNames(id)
		t.diags.MalformedAST(t.pos(id), fmt.Sprintf("destructuring pattern %q desugared without initializer edges", t.text(id)))
		if len(names) == 0 {
			return &ast.EmptyStmt{Pos: t.pos(n)}
		}
		decls := make([]ast.Stmt, 0, len(names))
		for _, nm := range names {
			decls = append(decls, &ast.VarDecl{Pos: t.pos(n), Name: t.names.Intern(nm)})
		}
		if len(decls) == 1 {
			return decls[0]
		}
		return &ast.BlockStmt{Body: decls}
	}

	decl := &ast.VarDecl{Pos: t.pos(n), Name: t.names.Intern(t.text(id))}
	if init := n.ChildByFieldName("value"); init != nil {
		decl.Init = t.translateExpr(init)
	}
	return decl
}

// collectPatternNames walks an object/array destructuring pattern and
// returns every identifier it binds, ignoring nested default values and
// computed keys (those expressions are simply not seeded — consistent with
// the destructuring gap this function exists to document).
func (t *translator) collectPatternNames(n *sitter.Node) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			out = append(out, t.text(n))
		case "assignment_pattern", "object_assignment_pattern":
			walk(n.ChildByFieldName("left"))
		case "pair_pattern":
			walk(n.ChildByFieldName("value"))
		default:
			for i := 0; i < int(n.NamedChildCount()); i++ {
				walk(n.NamedChild(i))
			}
		}
	}
	walk(n)
	return out
}

func (t *translator) translateExpr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "parenthesized_expression":
		return t.translateExpr(n.NamedChild(0))
	case "assignment_expression":
		return &ast.BinaryExpr{
			Pos:   t.pos(n),
			Op:    ast.OpAssign,
			Raw:   "=",
			Left:  t.translateExpr(n.ChildByFieldName("left")),
			Right: t.translateExpr(n.ChildByFieldName("right")),
		}
	case "binary_expression":
		op := t.text(n.ChildByFieldName("operator"))
		kind := ast.OpOther
		if op == "||" {
			kind = ast.OpLogicalOr
		}
		return &ast.BinaryExpr{
			Pos:   t.pos(n),
			Op:    kind,
			Raw:   op,
			Left:  t.translateExpr(n.ChildByFieldName("left")),
			Right: t.translateExpr(n.ChildByFieldName("right")),
		}
	case "unary_expression":
		return &ast.UnaryExpr{
			Pos:     t.pos(n),
			Op:      t.text(n.ChildByFieldName("operator")),
			Operand: t.translateExpr(n.ChildByFieldName("argument")),
		}
	case "function_declaration", "function_expression", "generator_function", "arrow_function", "method_definition":
		return t.translateFunction(n)
	case "object":
		return t.translateObject(n)
	case "identifier", "property_identifier", "shorthand_property_identifier":
		spelling := t.text(n)
		return &ast.IdentExpr{Pos: t.pos(n), Spelling: spelling, Ref: t.names.Intern(spelling)}
	case "member_expression":
		prop := n.ChildByFieldName("property")
		return &ast.MemberExpr{
			Pos:      t.pos(n),
			Object:   t.translateExpr(n.ChildByFieldName("object")),
			Property: t.text(prop),
		}
	case "subscript_expression":
		return &ast.IndexExpr{
			Pos:    t.pos(n),
			Object: t.translateExpr(n.ChildByFieldName("object")),
			Index:  t.translateExpr(n.ChildByFieldName("index")),
		}
	case "string":
		return &ast.StringLiteral{Pos: t.pos(n), Value: stringLiteralValue(t.text(n))}
	case "number", "true", "false", "null", "undefined", "regex", "template_string":
		return &ast.Literal{Pos: t.pos(n), Raw: t.text(n)}
	case "call_expression", "new_expression":
		call := &ast.CallExpr{Pos: t.pos(n), Callee: t.translateExpr(n.ChildByFieldName("function"))}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				call.Args = append(call.Args, t.translateExpr(args.NamedChild(i)))
			}
		}
		return call
	default:
		t.diags.UnmodeledConstruct(t.pos(n), n.Type())
		return &ast.OpaqueExpr{Pos: t.pos(n), Kind: n.Type(), Children: t.translateChildExprs(n)}
	}
}

func (t *translator) translateChildExprs(n *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if e := t.translateExpr(n.NamedChild(i)); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// translateFunction implements §4.3's function-definition rule plus the
// arrow-function supplemental rule: every function-shaped node (named
// declaration, function expression, arrow function, method) becomes an
// ast.FunctionExpr; only the ones that carry a declared name bind one.
func (t *translator) translateFunction(n *sitter.Node) *ast.FunctionExpr {
	fn := &ast.FunctionExpr{Pos: t.pos(n)}
	if id := n.ChildByFieldName("name"); id != nil {
		fn.Name = t.names.Intern(t.text(id))
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			fn.Params = append(fn.Params, t.translateParam(p))
		}
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		// Single-parameter arrow shorthand: `x => x`.
		fn.Params = append(fn.Params, t.translateParam(p))
	}
	body := n.ChildByFieldName("body")
	if body != nil && body.Type() != "statement_block" {
		// Arrow expression body `x => x + 1`: treat as an implicit return.
		fn.Body = &ast.ReturnStmt{Pos: t.pos(body), Value: t.translateExpr(body)}
	} else {
		fn.Body = t.translateStmt(body)
	}
	return fn
}

func (t *translator) translateParam(n *sitter.Node) *ast.Param {
	if n == nil {
		return &ast.Param{}
	}
	id := n
	if p := n.ChildByFieldName("pattern"); p != nil {
		// TypeScript required/optional parameter: drop the type annotation.
		id = p
	}
	if id.Type() == "assignment_pattern" {
		id = id.ChildByFieldName("left")
	}
	return &ast.Param{Pos: t.pos(n), Name: t.names.Intern(t.text(id))}
}

// translateObject implements §4.3's object-literal rule plus the property-
// and method-shorthand supplemental rules, which desugar before reaching
// the shared label/value handling.
func (t *translator) translateObject(n *sitter.Node) *ast.ObjectExpr {
	obj := &ast.ObjectExpr{Pos: t.pos(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			val := t.translateExpr(child.ChildByFieldName("value"))
			obj.Props = append(obj.Props, t.translateProperty(key, val))
		case "shorthand_property_identifier":
			spelling := t.text(child)
			obj.Props = append(obj.Props, ast.Property{
				Label: ast.PropertyLabel{Static: spelling},
				Value: &ast.IdentExpr{Pos: t.pos(child), Spelling: spelling, Ref: t.names.Intern(spelling)},
			})
		case "method_definition":
			key := child.ChildByFieldName("name")
			fn := t.translateFunction(child)
			fn.Name = nil // method shorthand desugars to `{ f: function () {...} }`, not a named binding
			obj.Props = append(obj.Props, t.translateProperty(key, fn))
		default:
			t.diags.UnmodeledConstruct(t.pos(child), child.Type())
		}
	}
	return obj
}

func (t *translator) translateProperty(key *sitter.Node, value ast.Expr) ast.Property {
	if key == nil {
		return ast.Property{Label: ast.PropertyLabel{IsComputed: true}, Value: value}
	}
	switch key.Type() {
	case "property_identifier":
		return ast.Property{Label: ast.PropertyLabel{Static: t.text(key)}, Value: value}
	case "string":
		return ast.Property{Label: ast.PropertyLabel{Static: stringLiteralValue(t.text(key))}, Value: value}
	case "computed_property_name":
		return ast.Property{
			Label: ast.PropertyLabel{IsComputed: true, Computed: t.translateExpr(key.NamedChild(0))},
			Value: value,
		}
	default:
		return ast.Property{Label: ast.PropertyLabel{IsComputed: true, Computed: t.translateExpr(key)}, Value: value}
	}
}

// stringLiteralValue strips the surrounding quote characters tree-sitter
// keeps in a string node's raw text.
func stringLiteralValue(raw string) string {
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}
