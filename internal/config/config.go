// Package config loads compiler configuration from a YAML file named
// rslc.yaml or .rslcrc(.yaml). The file is searched for in the
// current directory and walking up through parent directories.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the compiler options file structure. All fields are
// optional; unset fields fall back to DefaultOptions.
type Config struct {
	// ErrorLimit caps the number of accumulated diagnostics before
	// the parser gives up early. Zero means unlimited.
	ErrorLimit *int `yaml:"errorLimit,omitempty"`

	// IncludePaths are search directories for #include "file.h",
	// tried in order, before the name as given (relative to the
	// working directory).
	IncludePaths []string `yaml:"includePaths,omitempty"`

	// ToleratesUnresolvedIdentifiers, if true, lets the parser keep
	// building a tree (typing the offending identifiers as uniform
	// float) past an unresolved identifier instead of failing the parse
	// outright once the error count is non-zero.
	ToleratesUnresolvedIdentifiers *bool `yaml:"toleratesUnresolvedIdentifiers,omitempty"`

	// DefaultCoordinateSystem names the coordinate space implied by
	// a bare point/vector/normal constructor with no explicit space
	// string, e.g. point(0,0,0). A matrix cast gets no default space.
	DefaultCoordinateSystem *string `yaml:"defaultCoordinateSystem,omitempty"`

	// DefaultColorSpace names the color space implied by a bare
	// color constructor with no explicit space string.
	DefaultColorSpace *string `yaml:"defaultColorSpace,omitempty"`
}

// Options are the resolved, fully-defaulted compiler options.
type Options struct {
	ErrorLimit                     int
	IncludePaths                   []string
	ToleratesUnresolvedIdentifiers bool
	DefaultCoordinateSystem        string
	DefaultColorSpace              string
}

// DefaultOptions returns the options used when no config file is found.
func DefaultOptions() Options {
	return Options{
		ErrorLimit:                     0,
		ToleratesUnresolvedIdentifiers: true,
		DefaultCoordinateSystem:        "current",
		DefaultColorSpace:              "rgb",
	}
}

// FileNames are the names searched for config files, in order of
// preference.
var FileNames = []string{
	"rslc.yaml",
	".rslcrc",
	".rslcrc.yaml",
}

// Load searches startDir and its ancestors for a config file. Returns
// nil, "", nil if none is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return &cfg, nil
}

// ToOptions resolves c against DefaultOptions, filling unset fields.
func (c *Config) ToOptions() Options {
	opts := DefaultOptions()
	if c == nil {
		return opts
	}
	if c.ErrorLimit != nil {
		opts.ErrorLimit = *c.ErrorLimit
	}
	if len(c.IncludePaths) > 0 {
		opts.IncludePaths = c.IncludePaths
	}
	if c.ToleratesUnresolvedIdentifiers != nil {
		opts.ToleratesUnresolvedIdentifiers = *c.ToleratesUnresolvedIdentifiers
	}
	if c.DefaultCoordinateSystem != nil {
		opts.DefaultCoordinateSystem = *c.DefaultCoordinateSystem
	}
	if c.DefaultColorSpace != nil {
		opts.DefaultColorSpace = *c.DefaultColorSpace
	}
	return opts
}

// MergeOptions holds CLI flags that override the config file when set.
type MergeOptions struct {
	ErrorLimit               *int
	IncludePaths             []string
	DefaultCoordinateSystem  *string
	DefaultColorSpace        *string
}

// Merge combines CLI options with config file options; CLI options
// take precedence when specified.
func (c *Config) Merge(cli MergeOptions) Options {
	opts := c.ToOptions()
	if cli.ErrorLimit != nil {
		opts.ErrorLimit = *cli.ErrorLimit
	}
	if len(cli.IncludePaths) > 0 {
		opts.IncludePaths = append(append([]string{}, cli.IncludePaths...), opts.IncludePaths...)
	}
	if cli.DefaultCoordinateSystem != nil {
		opts.DefaultCoordinateSystem = *cli.DefaultCoordinateSystem
	}
	if cli.DefaultColorSpace != nil {
		opts.DefaultColorSpace = *cli.DefaultColorSpace
	}
	return opts
}
