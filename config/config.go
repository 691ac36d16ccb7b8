// Package config handles gcmark.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/gcmark/gc"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the name of the configuration file.
const FileName = "gcmark.toml"

// Config represents a gcmark.toml file.
type Config struct {
	Heap  HeapConfig  `toml:"heap"`
	Log   LogConfig   `toml:"log"`
	Stats StatsConfig `toml:"stats"`

	// Dir is the directory containing the file (set at load time).
	Dir string `toml:"-"`
}

// HeapConfig configures the collected heap.
type HeapConfig struct {
	Name           string `toml:"name"`
	MarkingWorkers int    `toml:"marking-workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// StatsConfig configures where cycle statistics go.
type StatsConfig struct {
	Database string `toml:"database"`
	Report   string `toml:"report"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads gcmark.toml from dir. Keys the file sets that Config does not
// know about are reported as an error, so typos do not silently fall back to
// defaults.
func Load(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	path := filepath.Join(abs, FileName)

	c := &Config{Dir: abs}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	if c.Heap.MarkingWorkers < 0 {
		return nil, fmt.Errorf("config: %s: marking-workers must not be negative", path)
	}

	c.applyDefaults()
	return c, nil
}

// FindAndLoad loads the nearest gcmark.toml at or above startDir. It returns
// nil, nil when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := find(startDir)
	if err != nil || dir == "" {
		return nil, err
	}
	return Load(dir)
}

// find returns the closest directory at or above startDir holding FileName,
// or "" if the filesystem root is reached first.
func find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", startDir, err)
	}
	for ; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			return "", nil
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Heap.Name == "" {
		c.Heap.Name = "default"
	}
	if c.Heap.MarkingWorkers == 0 {
		c.Heap.MarkingWorkers = gc.DefaultMarkingWorkers
	}
}

// HeapOptions returns the options for gc.NewHeap.
func (c *Config) HeapOptions() gc.Options {
	return gc.Options{
		Name:           c.Heap.Name,
		MarkingWorkers: c.Heap.MarkingWorkers,
	}
}

// DatabasePath returns the stats database path, resolved against Dir.
// Empty means no history is kept.
func (c *Config) DatabasePath() string {
	return c.resolve(c.Stats.Database)
}

// ReportPath returns the path of the last-cycle report, resolved against Dir.
func (c *Config) ReportPath() string {
	return c.resolve(c.Stats.Report)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ConfigureLogging sets up the commonlog backend from the [log] section.
func (c *Config) ConfigureLogging() {
	var path *string
	if c.Log.File != "" {
		file := c.resolve(c.Log.File)
		path = &file
	}
	commonlog.Configure(c.Log.Verbosity, path)
}
