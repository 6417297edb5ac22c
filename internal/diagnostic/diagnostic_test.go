package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavola/flowgraph/internal/ast"
)

func TestBag_NilBagDiscardsSilently(t *testing.T) {
	var b *Bag
	assert.NotPanics(t, func() {
		b.UnknownName(ast.Pos{}, "x")
		b.MalformedAST(ast.Pos{}, "bad")
		b.UnmodeledConstruct(ast.Pos{}, "SwitchStmt")
	})
	assert.Equal(t, 0, b.Count())
	assert.Equal(t, "", b.Format())
	assert.False(t, b.HasErrors())
}

func TestBag_UnknownNameIsInfoNotError(t *testing.T) {
	b := NewBag("main.js")
	b.UnknownName(ast.Pos{Line: 3, Column: 5}, "foo")

	require.Len(t, b.Items(), 1)
	d := b.Items()[0]
	assert.Equal(t, CodeUnknownName, d.Code)
	assert.Equal(t, Info, d.Severity)
	assert.Equal(t, "main.js", d.File)
	assert.False(t, b.HasErrors())
}

func TestBag_ParseErrorCountsAsError(t *testing.T) {
	b := NewBag("main.js")
	b.ParseError(ast.Pos{Line: 1, Column: 1}, "unexpected token")

	assert.True(t, b.HasErrors())
	assert.Equal(t, 1, b.Count())
}

func TestBag_FormatProducesOneLinePerDiagnostic(t *testing.T) {
	b := NewBag("main.js")
	b.UnknownName(ast.Pos{Line: 1, Column: 1}, "a")
	b.MalformedAST(ast.Pos{Line: 2, Column: 1}, "missing name")

	out := b.Format()
	assert.Contains(t, out, "unknown-name")
	assert.Contains(t, out, "malformed-ast")
	assert.Equal(t, 2, len(splitLines(out)))
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
