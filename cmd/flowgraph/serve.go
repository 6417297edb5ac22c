package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tavola/flowgraph/internal/cache"
	"github.com/tavola/flowgraph/internal/config"
	"github.com/tavola/flowgraph/pkg/api"
)

var flagServeAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the analyzer over JSON-over-HTTP for editor integrations",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagServeAddr, "addr", ":8585", "address to listen on")
	return cmd
}

// analyzeRequest is the body of POST /analyze.
type analyzeRequest struct {
	FileName        string   `json:"fileName"`
	Source          string   `json:"source"`
	EntryPointNames []string `json:"entryPointNames"`
}

// analyzeResponse wraps api.Result with a run id so clients can correlate
// logs across a session.
type analyzeResponse struct {
	RunID        string             `json:"runId"`
	FromCache    bool               `json:"fromCache"`
	Declarations []api.Declaration  `json:"declarations"`
	Diagnostics  []api.Diagnostic   `json:"diagnostics"`
	LiveCount    int                `json:"liveCount"`
	DeadCount    int                `json:"deadCount"`
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	cfg, _, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled && !flagNoCache {
		resultCache = cache.New(1024)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		handleAnalyze(w, r, resultCache, logger)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: flagServeAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", flagServeAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func handleAnalyze(w http.ResponseWriter, r *http.Request, resultCache *cache.Cache, logger *zap.Logger) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	runID := uuid.New()
	key := cache.Key([]byte(req.Source), req.EntryPointNames)
	if resultCache != nil {
		if cached, ok := resultCache.Get(key); ok {
			writeAnalyzeResponse(w, runID, true, cached)
			return
		}
	}

	result := api.Analyze(req.Source, api.Options{
		FileName:        req.FileName,
		EntryPointNames: req.EntryPointNames,
	})

	if resultCache != nil {
		resultCache.Set(key, toCacheResult(result))
	}

	logger.Debug("served analyze request", zap.String("runId", runID.String()), zap.Int("live", result.LiveCount), zap.Int("dead", result.DeadCount))

	writeAnalyzeJSON(w, runID, false, result)
}

func toCacheResult(result api.Result) cache.Result {
	out := cache.Result{Declarations: make([]cache.Declaration, 0, len(result.Declarations))}
	for _, d := range result.Declarations {
		out.Declarations = append(out.Declarations, cache.Declaration{Name: d.Name, Kind: d.Kind, Live: d.Live})
	}
	for _, d := range result.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, cache.Diagnostic{
			Severity: d.Severity, Code: d.Code, Message: d.Message, Line: d.Line, Column: d.Column,
		})
	}
	return out
}

func writeAnalyzeResponse(w http.ResponseWriter, runID uuid.UUID, fromCache bool, cached cache.Result) {
	resp := analyzeResponse{RunID: runID.String(), FromCache: fromCache}
	for _, d := range cached.Declarations {
		resp.Declarations = append(resp.Declarations, api.Declaration{Name: d.Name, Kind: d.Kind, Live: d.Live})
		if d.Live {
			resp.LiveCount++
		} else {
			resp.DeadCount++
		}
	}
	for _, d := range cached.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, api.Diagnostic{
			Severity: d.Severity, Code: d.Code, Message: d.Message, Line: d.Line, Column: d.Column,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeAnalyzeJSON(w http.ResponseWriter, runID uuid.UUID, fromCache bool, result api.Result) {
	resp := analyzeResponse{
		RunID:        runID.String(),
		FromCache:    fromCache,
		Declarations: result.Declarations,
		Diagnostics:  result.Diagnostics,
		LiveCount:    result.LiveCount,
		DeadCount:    result.DeadCount,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
