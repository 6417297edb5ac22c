package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavola/flowgraph/internal/cache"
	"github.com/tavola/flowgraph/internal/driver"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestWriteResults_JSON(t *testing.T) {
	results := []driver.FileResult{
		{
			Path: "a.js",
			Declarations: []cache.Declaration{
				{Name: "used", Kind: "function", Live: true},
				{Name: "unused", Kind: "function", Live: false},
			},
		},
		{Path: "b.js", Err: errors.New("boom")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results, FormatJSON, false))

	var decoded []jsonFile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, []string{"used"}, decoded[0].Live)
	assert.Equal(t, []string{"unused"}, decoded[0].Dead)
	assert.Equal(t, "boom", decoded[1].Error)
}

func TestWriteResults_TextListsDeclarationsAndDiagnostics(t *testing.T) {
	results := []driver.FileResult{
		{
			Path: "a.js",
			Declarations: []cache.Declaration{
				{Name: "main", Kind: "function", Live: true},
			},
			Diagnostics: []cache.Diagnostic{
				{Severity: "info", Code: "unknown-name", Message: "x", Line: 1, Column: 2},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results, FormatText, false))

	out := buf.String()
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "a.js:1:2: info: x")
}
