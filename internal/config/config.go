// Package config loads kstub.toml or kstub.yaml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"kstub/internal/names"
	"kstub/internal/trace"
	"kstub/internal/types"
)

const (
	TOMLName = "kstub.toml"
	YAMLName = "kstub.yaml"
)

type Config struct {
	Path  string      `toml:"-" yaml:"-"` // file it was read from, empty for defaults
	Index IndexConfig `toml:"index" yaml:"index"`
	Trace TraceConfig `toml:"trace" yaml:"trace"`
	Types TypesConfig `toml:"types" yaml:"types"`
}

type IndexConfig struct {
	Jobs int `toml:"jobs" yaml:"jobs"`
}

type TraceConfig struct {
	Level     string `toml:"level" yaml:"level"`
	Mode      string `toml:"mode" yaml:"mode"`
	Output    string `toml:"output" yaml:"output"`
	Heartbeat string `toml:"heartbeat" yaml:"heartbeat"` // e.g. "2s"
}

type TypesConfig struct {
	ReadOnlyAnnotation string           `toml:"read_only_annotation" yaml:"read_only_annotation"`
	NotNullAnnotation  string           `toml:"not_null_annotation" yaml:"not_null_annotation"`
	Collections        []CollectionPair `toml:"collections" yaml:"collections"`
}

// CollectionPair maps a mutable collection class to its read-only view.
// Both are class ids: "kotlin/collections/MutableList".
type CollectionPair struct {
	Mutable  string `toml:"mutable" yaml:"mutable"`
	ReadOnly string `toml:"read_only" yaml:"read_only"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Trace: TraceConfig{Level: "off", Mode: "stream", Output: "-"},
		Types: TypesConfig{
			ReadOnlyAnnotation: string(types.DefaultReadOnlyAnnotation),
			NotNullAnnotation:  string(types.DefaultNotNullAnnotation),
		},
	}
}

// Find looks for kstub.toml, then kstub.yaml, in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range []string{TOMLName, YAMLName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load finds and reads the nearest config file. Without one it returns
// Default() and found=false.
func Load(startDir string) (cfg Config, found bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), false, err
	}
	cfg, err = LoadFile(path)
	return cfg, true, err
}

// LoadFile reads path, picking the decoder by extension. Keys that are not
// set keep their defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
		}
		if meta.IsDefined("types", "collections") {
			for i, p := range cfg.Types.Collections {
				if p.Mutable == "" || p.ReadOnly == "" {
					return Config{}, fmt.Errorf("%s: [[types.collections]] #%d needs mutable and read_only", path, i+1)
				}
			}
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%s: unsupported config format", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that the file formats cannot.
func (c Config) Validate() error {
	if c.Index.Jobs < 0 {
		return fmt.Errorf("[index].jobs must not be negative, got %d", c.Index.Jobs)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if c.Trace.Mode != "" {
		if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
			return fmt.Errorf("[trace].mode: %w", err)
		}
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return err
	}
	for i, p := range c.Types.Collections {
		if !strings.Contains(p.Mutable, "/") || !strings.Contains(p.ReadOnly, "/") {
			return fmt.Errorf("[[types.collections]] #%d: class ids must look like pkg/path/Name", i+1)
		}
	}
	return nil
}

// HeartbeatInterval parses [trace].heartbeat; empty means disabled.
func (c Config) HeartbeatInterval() (time.Duration, error) {
	if c.Trace.Heartbeat == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Trace.Heartbeat)
	if err != nil {
		return 0, fmt.Errorf("[trace].heartbeat: %w", err)
	}
	return d, nil
}

// CollectionMapping returns the standard mutable/read-only pairs plus the
// configured ones.
func (c Config) CollectionMapping() *types.CollectionMapping {
	m := types.NewCollectionMapping()
	for _, p := range c.Types.Collections {
		m.Add(names.ParseClassID(p.Mutable), names.ParseClassID(p.ReadOnly))
	}
	return m
}

// ApproximatorOptions returns the marker annotation overrides.
func (c Config) ApproximatorOptions() []types.ApproximatorOption {
	return []types.ApproximatorOption{
		types.WithMarkerAnnotations(names.FqName(c.Types.ReadOnlyAnnotation), names.FqName(c.Types.NotNullAnnotation)),
	}
}
