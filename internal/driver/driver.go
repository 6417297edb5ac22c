// Package driver fans a multi-file analysis run out across a bounded
// worker pool and merges the per-file results back together.
//
// Each file's seeding, draining, and pruning happens in full isolation:
// one internal/ast.NameTable, internal/flow.Graph, and
// internal/diagnostic.Bag per file, so no mutable analyzer state crosses
// goroutine boundaries. The only shared state is the result slice and the
// optional internal/cache.Cache, both guarded by a mutex.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/tavola/flowgraph/internal/ast"
	"github.com/tavola/flowgraph/internal/cache"
	"github.com/tavola/flowgraph/internal/diagnostic"
	"github.com/tavola/flowgraph/internal/flow"
	"github.com/tavola/flowgraph/internal/frontend"
	"github.com/tavola/flowgraph/internal/prune"
	"github.com/tavola/flowgraph/internal/seed"
)

// DefaultWorkerMultiplier sizes the pool relative to runtime.NumCPU(), the same
// ratio the teacher's worker pool used for CPU-bound tree walks.
const DefaultWorkerMultiplier = 2

// Options configures a Run.
type Options struct {
	EntryPointNames []string
	Cache           *cache.Cache
	MaxWorkers      int // 0 selects runtime.NumCPU() * DefaultWorkerMultiplier
}

// FileResult is one file's analysis outcome.
type FileResult struct {
	Path         string
	RunID        uuid.UUID
	Declarations []cache.Declaration
	Diagnostics  []cache.Diagnostic
	FromCache    bool
	Err          error
}

// Run analyzes every path in paths concurrently and returns one FileResult
// per input path, in no particular order. A per-file error (unreadable
// file, parse failure) is reported on that file's FileResult.Err rather
// than aborting the whole run.
func Run(ctx context.Context, paths []string, opts Options) []FileResult {
	if len(paths) == 0 {
		return nil
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	runID := uuid.New()
	results := make([]FileResult, 0, len(paths))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for _, path := range paths {
		path := path
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res := analyzeFile(path, runID, opts)

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	return results
}

func analyzeFile(path string, runID uuid.UUID, opts Options) FileResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, RunID: runID, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	key := cache.Key(content, opts.EntryPointNames)
	if opts.Cache != nil {
		if cached, ok := opts.Cache.Get(key); ok {
			return FileResult{
				Path:         path,
				RunID:        runID,
				Declarations: cached.Declarations,
				Diagnostics:  cached.Diagnostics,
				FromCache:    true,
			}
		}
	}

	names := ast.NewNameTable()
	diags := diagnostic.NewBag(path)
	parser := frontend.NewParser(names)
	prog := parser.ParseSource(content, frontend.DetectLanguage(path), diags)

	graph := flow.NewGraph()
	seedWalker := seed.New(graph, names, diags)
	seedWalker.Seed(prog)
	graph.Drain()

	pruneResult := prune.Prune(prog, graph, prune.Options{EntryPointNames: opts.EntryPointNames})

	cacheResult := toCacheResult(pruneResult, diags)
	if opts.Cache != nil {
		opts.Cache.Set(key, cacheResult)
	}

	return FileResult{
		Path:         path,
		RunID:        runID,
		Declarations: cacheResult.Declarations,
		Diagnostics:  cacheResult.Diagnostics,
	}
}

func toCacheResult(pruneResult *prune.Result, diags *diagnostic.Bag) cache.Result {
	out := cache.Result{
		Declarations: make([]cache.Declaration, 0, len(pruneResult.Declarations)),
	}
	for _, d := range pruneResult.Declarations {
		kind := "variable"
		if d.Kind == prune.DeclFunction {
			kind = "function"
		}
		out.Declarations = append(out.Declarations, cache.Declaration{
			Name: d.Name.Spelling,
			Kind: kind,
			Live: d.Live,
		})
	}
	for _, item := range diags.Items() {
		out.Diagnostics = append(out.Diagnostics, cache.Diagnostic{
			Severity: item.Severity.String(),
			Code:     string(item.Code),
			Message:  item.Message,
			Line:     item.Pos.Line,
			Column:   item.Pos.Column,
		})
	}
	return out
}
