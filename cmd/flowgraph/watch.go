package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tavola/flowgraph/internal/config"
	"github.com/tavola/flowgraph/internal/driver"
	"github.com/tavola/flowgraph/internal/report"
	"github.com/tavola/flowgraph/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-analyze a directory tree on file change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	dir := args[0]
	cfg, cfgPath, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfgPath != "" {
		logger.Debug("using config file", zap.String("path", cfgPath))
	}

	entryPoints := append(append([]string{}, cfg.EntryPoints.Names...), entryPointNamesFromFlag()...)
	c, _ := openCache(cfg, logger)

	analyzeOne := func(path string) {
		results := driver.Run(context.Background(), []string{path}, driver.Options{
			EntryPointNames: entryPoints,
			Cache:           c,
		})
		format := report.ParseFormat(cfg.Output.Format)
		if flagFormat != "" {
			format = report.ParseFormat(flagFormat)
		}
		if err := report.WriteResults(cmd.OutOrStdout(), results, format, cfg.Output.Color && !flagNoColor); err != nil {
			logger.Warn("rendering report failed", zap.Error(err))
		}
	}

	w, err := watch.New(dir, 0, analyzeOne)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for changes", zap.String("dir", dir))
	return w.Run(ctx)
}
