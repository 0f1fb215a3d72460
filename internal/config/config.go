package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
)

// Default generator settings, also used as fallbacks during config parsing
const (
	DefaultDelimiter  = "|"
	DefaultTypeName   = "CellType"
	DefaultDebounceMs = 100
)

type Config struct {
	Version   int
	Project   Project
	Generator Generator
	Watch     Watch

	// Path the config was loaded from, empty when defaults were used
	Source string
}

type Project struct {
	Root string
	Name string
}

type Generator struct {
	Delimiter string   // single-character field separator for input tables
	TypeName  string   // enum type referenced by generated match arms
	Tables    []string // glob patterns resolving input tables, relative to Project.Root
	OutputDir string   // directory for generated files; empty means stdout
}

type Watch struct {
	DebounceMs int // debounce time for file change events
}

// Default returns a configuration with all defaults applied.
// Project.Root defaults to the current working directory.
func Default() *Config {
	root, err := os.Getwd()
	if err != nil || root == "" {
		root = "."
	}

	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Generator: Generator{
			Delimiter: DefaultDelimiter,
			TypeName:  DefaultTypeName,
			Tables:    []string{},
		},
		Watch: Watch{DebounceMs: DefaultDebounceMs},
	}
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Generator.Delimiter) != 1 {
		return hgerrors.NewConfigError(c.Source, "delimiter", c.Generator.Delimiter,
			fmt.Errorf("must be a single character"))
	}
	if c.Generator.TypeName == "" {
		return hgerrors.NewConfigError(c.Source, "type_name", c.Generator.TypeName,
			fmt.Errorf("must not be empty"))
	}
	if c.Watch.DebounceMs < 0 {
		return hgerrors.NewConfigError(c.Source, "debounce_ms", c.Watch.DebounceMs,
			fmt.Errorf("must not be negative"))
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Generator.Delimiter)
	return r
}
