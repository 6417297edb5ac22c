// Package config loads flowgraph configuration from a layered set of files.
//
// Configuration can be specified in a file named flowgraph.json,
// flowgraph.yaml, .flowgraphrc, or .flowgraphrc.json. The config file is searched for in the
// current directory and parent directories, same as the teacher's loader,
// but parsing and merging is delegated to koanf instead of a single
// encoding/json.Unmarshal call.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tavola/flowgraph/internal/prune"
)

// ConfigFileNames are the names searched for config files, in order of
// preference.
var ConfigFileNames = []string{
	"flowgraph.json",
	"flowgraph.yaml",
	".flowgraphrc",
	".flowgraphrc.json",
}

// EntryPointConfig controls which top-level bindings internal/prune treats
// as live roots beyond the export forms it already recognizes syntactically.
type EntryPointConfig struct {
	Names []string `koanf:"names"`
}

// CacheConfig controls internal/cache's on-disk result cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// OutputConfig controls cmd/flowgraph's reporting.
type OutputConfig struct {
	Format string `koanf:"format"` // text, json
	Color  bool   `koanf:"color"`
}

// Config is the full flowgraph configuration, loadable from a file or
// built programmatically by pkg/api callers.
type Config struct {
	EntryPoints EntryPointConfig `koanf:"entry_points"`
	Cache       CacheConfig      `koanf:"cache"`
	Output      OutputConfig     `koanf:"output"`
}

// DefaultConfig returns a Config with sensible defaults, mirroring the
// shape of the teacher's minifier.DefaultOptions constructor.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled: true,
			Dir:     defaultCacheDir(),
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "flowgraph")
	}
	return ".flowgraph-cache"
}

// PruneOptions adapts the loaded entry-point configuration into the shape
// internal/prune.Options expects.
func (c *Config) PruneOptions() prune.Options {
	return prune.Options{EntryPointNames: c.EntryPoints.Names}
}

// Load searches for a config file starting from startDir and walking up to
// parent directories, exactly as the teacher's Load did. Returns the default
// config, unmodified, if no file is found anywhere up to the filesystem
// root.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig(), "", nil
		}
		dir = parent
	}
}

// LoadFile loads and merges configuration from a specific file path on top
// of DefaultConfig, choosing a parser by file extension.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, err
	}

	// Unmarshal onto the defaults so fields the file omits keep their
	// default value instead of zeroing out.
	out := DefaultConfig()
	if err := k.Unmarshal("", out); err != nil {
		return nil, err
	}
	return out, nil
}

func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}
