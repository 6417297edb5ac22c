package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTable_InternReturnsStableIdentity(t *testing.T) {
	table := NewNameTable()

	a := table.Intern("x")
	b := table.Intern("x")

	assert.Same(t, a, b, "interning the same spelling twice must return the same identity")
	assert.Equal(t, "x", a.Spelling)
}

func TestNameTable_DistinctSpellingsAreDistinctNames(t *testing.T) {
	table := NewNameTable()

	a := table.Intern("x")
	b := table.Intern("y")

	assert.NotSame(t, a, b)
}

func TestNameTable_LookupDoesNotCreate(t *testing.T) {
	table := NewNameTable()

	_, ok := table.Lookup("missing")
	assert.False(t, ok)

	table.Intern("present")
	n, ok := table.Lookup("present")
	require.True(t, ok)
	assert.Equal(t, "present", n.Spelling)
}

func TestProgram_ConstructsOrderedStatementList(t *testing.T) {
	table := NewNameTable()
	decl := &VarDecl{Name: table.Intern("x")}
	ret := &ReturnStmt{}

	p := &Program{Body: []Stmt{decl, ret}}

	require.Len(t, p.Body, 2)
	assert.Same(t, Stmt(decl), p.Body[0])
	assert.Same(t, Stmt(ret), p.Body[1])
}

func TestVarDecl_InitIsNotConnectedByConstruction(t *testing.T) {
	// This only asserts the struct shape allows Name and Init to be set
	// independently; whether they're connected is a seeding-walker
	// property, not an ast-package one.
	table := NewNameTable()
	decl := &VarDecl{
		Name: table.Intern("x"),
		Init: &Literal{Raw: "1"},
	}

	assert.NotNil(t, decl.Name)
	assert.NotNil(t, decl.Init)
}

func TestPropertyLabel_StaticVsComputed(t *testing.T) {
	static := PropertyLabel{Static: "foo"}
	assert.False(t, static.IsComputed)

	computed := PropertyLabel{IsComputed: true, Computed: &IdentExpr{Spelling: "k"}}
	assert.True(t, computed.IsComputed)
	assert.NotNil(t, computed.Computed)
}

func TestExprMarkerMethods_CoverAllKinds(t *testing.T) {
	// Compile-time-ish check that every expression kind satisfies Expr.
	var exprs = []Expr{
		&BinaryExpr{},
		&UnaryExpr{},
		&FunctionExpr{},
		&ObjectExpr{},
		&IdentExpr{},
		&MemberExpr{},
		&IndexExpr{},
		&StringLiteral{},
		&Literal{},
		&CallExpr{},
		&OpaqueExpr{},
	}
	assert.Len(t, exprs, 11)
}

func TestStmtMarkerMethods_CoverAllKinds(t *testing.T) {
	var stmts = []Stmt{
		&ExprStmt{},
		&BlockStmt{},
		&VarDecl{},
		&ReturnStmt{},
		&ThrowStmt{},
		&IfStmt{},
		&ForStmt{},
		&WhileStmt{},
		&TryStmt{},
		&EmptyStmt{},
		&OpaqueStmt{},
	}
	assert.Len(t, stmts, 11)
}
