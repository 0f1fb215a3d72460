package errors

import (
	"fmt"
	"time"
)

// Error types for the hivegen system
type ErrorType string

const (
	// Generation errors
	ErrorTypeTable ErrorType = "table"
	ErrorTypeEmit  ErrorType = "emit"

	// Hive errors
	ErrorTypeHive ErrorType = "hive"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// TableError represents a malformed row in an input table.
// Generation fails fast on the first one: rows already emitted stay
// on the output, nothing after the bad line is processed.
type TableError struct {
	Type       ErrorType
	FilePath   string
	Line       int
	Raw        string
	Underlying error
	Timestamp  time.Time
}

// NewTableError creates a new table error for a specific input line
func NewTableError(line int, raw string, err error) *TableError {
	return &TableError{
		Type:       ErrorTypeTable,
		Line:       line,
		Raw:        raw,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds the source table path to the error
func (e *TableError) WithFile(path string) *TableError {
	e.FilePath = path
	return e
}

// Error implements the error interface
func (e *TableError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("table error at %s:%d (row %q): %v", e.FilePath, e.Line, e.Raw, e.Underlying)
	}
	return fmt.Sprintf("table error at line %d (row %q): %v", e.Line, e.Raw, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *TableError) Unwrap() error {
	return e.Underlying
}

// HiveError represents a failure while decoding a registry hive file
type HiveError struct {
	Type       ErrorType
	FilePath   string
	Structure  string // "base block", "hive bin", "cell"
	Offset     int64
	Underlying error
	Timestamp  time.Time
}

// NewHiveError creates a new hive decode error
func NewHiveError(structure string, err error) *HiveError {
	return &HiveError{
		Type:       ErrorTypeHive,
		Structure:  structure,
		Offset:     -1,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds the hive path to the error
func (e *HiveError) WithFile(path string) *HiveError {
	e.FilePath = path
	return e
}

// WithOffset records the file offset the decoder was at when it failed
func (e *HiveError) WithOffset(offset int64) *HiveError {
	e.Offset = offset
	return e
}

// Error implements the error interface
func (e *HiveError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("hive %s decode failed at offset 0x%X: %v", e.Structure, e.Offset, e.Underlying)
	}
	return fmt.Sprintf("hive %s decode failed: %v", e.Structure, e.Underlying)
}

// Unwrap returns the underlying error
func (e *HiveError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Type       ErrorType
	ConfigPath string
	Field      string
	Value      interface{}
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new configuration error
func NewConfigError(path, field string, value interface{}, err error) *ConfigError {
	return &ConfigError{
		Type:       ErrorTypeConfig,
		ConfigPath: path,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s (field %s=%v): %v", e.ConfigPath, e.Field, e.Value, e.Underlying)
	}
	return fmt.Sprintf("config error in %s: %v", e.ConfigPath, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}
