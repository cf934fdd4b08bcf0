// Package config loads the optional hldr.yaml file supplying defaults
// for flags the CLI doesn't override.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Database holds the connection defaults a config file can supply.
type Database struct {
	URL        string `yaml:"url"`
	SearchPath string `yaml:"search_path"`
}

// Config is the full shape of an hldr.yaml file. Every field is optional;
// CLI flags always take precedence over whatever is set here.
type Config struct {
	DataFile string   `yaml:"data_file"`
	Database Database `yaml:"database"`
}

// ErrorKind discriminates config's error taxonomy.
type ErrorKind int

const (
	ErrNotFound ErrorKind = iota
	ErrRead
	ErrParse
)

// Error is config's single error type. It is never fatal to the
// pipeline's own error taxonomy: a missing config file just means no
// defaults are available.
type Error struct {
	Kind ErrorKind
	Path string
	Wrapped error
}

func (e *Error) Unwrap() error { return e.Wrapped }

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNotFound:
		return fmt.Sprintf("no config file at %s", e.Path)
	case ErrRead:
		return fmt.Sprintf("reading %s: %v", e.Path, e.Wrapped)
	case ErrParse:
		return fmt.Sprintf("parsing %s: %v", e.Path, e.Wrapped)
	default:
		return "config error"
	}
}

// Load reads and parses path. Returns ErrNotFound if the file does not
// exist, which a caller with a default config path should treat as "no
// config supplied" rather than a hard failure.
func Load(path string) (Config, *Error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, &Error{Kind: ErrNotFound, Path: path}
		}
		return cfg, &Error{Kind: ErrRead, Path: path, Wrapped: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Kind: ErrParse, Path: path, Wrapped: err}
	}

	return cfg, nil
}
