package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tavola/flowgraph/internal/config"
	"github.com/tavola/flowgraph/internal/driver"
)

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <files...>",
		Short: "List only the dead top-level declarations across files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrune,
	}
}

func runPrune(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	cfg, _, err := config.Load(filepath.Dir(args[0]))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	entryPoints := append(append([]string{}, cfg.EntryPoints.Names...), entryPointNamesFromFlag()...)

	c, cacheFile := openCache(cfg, logger)
	results := driver.Run(context.Background(), args, driver.Options{EntryPointNames: entryPoints, Cache: c})
	if c != nil {
		saveCache(c, cacheFile, logger)
	}

	out := cmd.OutOrStdout()
	anyDead := false
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", r.Path, r.Err)
			continue
		}
		for _, d := range r.Declarations {
			if !d.Live {
				anyDead = true
				fmt.Fprintf(out, "%s: %s %q is dead\n", r.Path, d.Kind, d.Name)
			}
		}
	}
	if !anyDead {
		fmt.Fprintln(out, "no dead declarations found")
	}
	return nil
}
