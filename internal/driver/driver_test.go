package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavola/flowgraph/internal/cache"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func declLive(t *testing.T, decls []cache.Declaration, name string) bool {
	t.Helper()
	for _, d := range decls {
		if d.Name == name {
			return d.Live
		}
	}
	t.Fatalf("no declaration named %q", name)
	return false
}

func TestRun_AnalyzesMultipleFilesConcurrently(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.js", "function used() {}\nfunction unused() {}\nmodule.exports.handler = used;\n")
	b := writeFile(t, dir, "b.js", "function main() {}\n")

	results := Run(context.Background(), []string{a, b}, Options{EntryPointNames: []string{"main"}})
	require.Len(t, results, 2)

	for _, r := range results {
		require.NoError(t, r.Err)
		switch r.Path {
		case a:
			assert.True(t, declLive(t, r.Declarations, "used"))
			assert.False(t, declLive(t, r.Declarations, "unused"))
		case b:
			assert.True(t, declLive(t, r.Declarations, "main"))
		default:
			t.Fatalf("unexpected path %q", r.Path)
		}
	}
}

func TestRun_UnreadableFileReportsErrOnItsOwnResult(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.js", "function main() {}\n")
	missing := filepath.Join(dir, "missing.js")

	results := Run(context.Background(), []string{ok, missing}, Options{})
	require.Len(t, results, 2)

	var okResult, missingResult *FileResult
	for i := range results {
		switch results[i].Path {
		case ok:
			okResult = &results[i]
		case missing:
			missingResult = &results[i]
		}
	}
	require.NotNil(t, okResult)
	require.NotNil(t, missingResult)
	assert.NoError(t, okResult.Err)
	assert.Error(t, missingResult.Err)
}

func TestRun_SecondRunHitsCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "function main() {}\n")
	c := cache.New(0)
	opts := Options{Cache: c, EntryPointNames: []string{"main"}}

	first := Run(context.Background(), []string{path}, opts)
	require.Len(t, first, 1)
	assert.False(t, first[0].FromCache)

	second := Run(context.Background(), []string{path}, opts)
	require.Len(t, second, 1)
	assert.True(t, second[0].FromCache)
	assert.Equal(t, first[0].Declarations, second[0].Declarations)
}

func TestRun_EmptyInputReturnsNil(t *testing.T) {
	results := Run(context.Background(), nil, Options{})
	assert.Nil(t, results)
}
