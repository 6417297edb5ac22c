package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagEntryPoints string
	flagNoCache     bool
	flagCacheFile   string
	flagFormat      string
	flagNoColor     bool
	flagVerbose     bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowgraph",
		Short: "flowgraph finds dead code in JavaScript/TypeScript via value-flow analysis",
		Long: `flowgraph builds a points-to graph of a JS/TS program and reports which
top-level functions and variables are reachable from an entry point and
which are dead.

Commands:
  analyze   Analyze one or more files and report live/dead declarations
  prune     List only the dead declarations across files
  watch     Re-analyze a directory tree on file change
  serve     Expose the analyzer over JSON-over-HTTP, backed by the result cache

Use "flowgraph [command] --help" for more information about a command.`,
	}

	root.PersistentFlags().StringVar(&flagEntryPoints, "entry-points", "", "comma-separated additional entry-point names")
	root.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable the on-disk result cache")
	root.PersistentFlags().StringVar(&flagCacheFile, "cache-file", "", "path to the cache file (default: config cache dir)")
	root.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: text or json (overrides config)")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized table output")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level logging")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newPruneCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())
	return root
}

func entryPointNamesFromFlag() []string {
	if flagEntryPoints == "" {
		return nil
	}
	parts := strings.Split(flagEntryPoints, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func newLogger() *zap.Logger {
	level := zap.InfoLevel
	if flagVerbose {
		level = zap.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if !flagNoColor {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
