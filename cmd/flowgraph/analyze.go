package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tavola/flowgraph/internal/cache"
	"github.com/tavola/flowgraph/internal/config"
	"github.com/tavola/flowgraph/internal/driver"
	"github.com/tavola/flowgraph/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <files...>",
		Short: "Analyze files and report live/dead top-level declarations",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	startDir := filepath.Dir(args[0])
	cfg, cfgPath, err := config.Load(startDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfgPath != "" {
		logger.Debug("using config file", zap.String("path", cfgPath))
	}

	entryPoints := append(append([]string{}, cfg.EntryPoints.Names...), entryPointNamesFromFlag()...)

	c, cacheFile := openCache(cfg, logger)
	results := driver.Run(context.Background(), args, driver.Options{
		EntryPointNames: entryPoints,
		Cache:           c,
	})
	if c != nil {
		saveCache(c, cacheFile, logger)
	}

	format := report.ParseFormat(cfg.Output.Format)
	if flagFormat != "" {
		format = report.ParseFormat(flagFormat)
	}
	colored := cfg.Output.Color && !flagNoColor

	if err := report.WriteResults(cmd.OutOrStdout(), results, format, colored); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to analyze", failed, len(results))
	}
	return nil
}

func openCache(cfg *config.Config, logger *zap.Logger) (*cache.Cache, string) {
	if flagNoCache || !cfg.Cache.Enabled {
		return nil, ""
	}
	cacheFile := flagCacheFile
	if cacheFile == "" {
		cacheFile = filepath.Join(cfg.Cache.Dir, "results.msgpack")
	}
	c := cache.New(0)
	if err := c.LoadFromFile(cacheFile); err != nil {
		logger.Warn("could not load result cache, starting empty", zap.Error(err))
	}
	return c, cacheFile
}

func saveCache(c *cache.Cache, path string, logger *zap.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("could not create cache directory", zap.Error(err))
		return
	}
	if err := c.SaveToFile(path); err != nil {
		logger.Warn("could not persist result cache", zap.Error(err))
	}
}
