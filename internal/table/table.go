// Package table parses pipe-delimited specification tables copied out of
// format documentation (one record per line) into the fields the code
// generators consume.
//
// A Row is transient: it is built for one input line, consumed by one emit
// step and discarded. Nothing accumulates across lines, so a malformed row
// aborts generation exactly where it occurred.
package table

import (
	"fmt"
	"strconv"
	"strings"

	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
)

// DefaultDelimiter separates fields in a record line
const DefaultDelimiter = '|'

// Row is one record of an input table, split into ordered fields
type Row struct {
	Line   int    // 1-based line number in the source table
	Raw    string // the line with surrounding whitespace stripped
	Fields []string
}

// Mapping is the enum-arm shape extracted from field 0: a short
// enum-variant token and the long human-readable key it maps to,
// e.g. `nk (Named Key)` -> {Short: "nk", Long: "NamedKey"}.
type Mapping struct {
	Short string
	Long  string
}

// Field is the struct-field shape extracted from the type-code columns:
// a width code, a normalized field name and a trailing comment column.
type Field struct {
	TypeCode int
	Name     string
	Comment  string
}

// Split builds a Row from a raw input line. The line is stripped of
// surrounding whitespace and split on delim; empty lines yield a Row with
// no fields and an empty Raw, which callers skip.
func Split(raw string, line int, delim rune) Row {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Row{Line: line}
	}
	return Row{
		Line:   line,
		Raw:    trimmed,
		Fields: strings.Split(trimmed, string(delim)),
	}
}

// Empty reports whether the row came from a blank line
func (r Row) Empty() bool {
	return r.Raw == ""
}

// Mapping extracts the short/long identifier pair from field 0.
// Field 0 must contain a '(' separating the short token from the long
// name; both halves are stripped of spaces and closing parens, and the
// long name additionally loses its internal spaces. An empty long name
// (`A ()`) is valid and preserved as the empty string.
func (r Row) Mapping() (Mapping, error) {
	if len(r.Fields) == 0 {
		return Mapping{}, hgerrors.NewTableError(r.Line, r.Raw, fmt.Errorf("empty row"))
	}

	parts := strings.SplitN(r.Fields[0], "(", 2)
	if len(parts) < 2 {
		return Mapping{}, hgerrors.NewTableError(r.Line, r.Raw, fmt.Errorf("missing '(' in field 0 %q", r.Fields[0]))
	}

	return Mapping{
		Short: normalizeIdentifier(parts[0]),
		Long:  normalizeIdentifier(parts[1]),
	}, nil
}

// Field extracts the type code, field name and comment columns.
// The layout follows the upstream format tables: field 1 is a numeric
// width code, field 2 the field name, field 4 the description.
func (r Row) Field() (Field, error) {
	if len(r.Fields) < 5 {
		return Field{}, hgerrors.NewTableError(r.Line, r.Raw,
			fmt.Errorf("expected at least 5 fields, got %d", len(r.Fields)))
	}

	code, err := strconv.Atoi(strings.TrimSpace(r.Fields[1]))
	if err != nil {
		return Field{}, hgerrors.NewTableError(r.Line, r.Raw,
			fmt.Errorf("field 1 is not a numeric type code: %w", err))
	}

	name := strings.TrimSpace(r.Fields[2])
	name = strings.ToLower(strings.ReplaceAll(name, " ", "_"))

	return Field{
		TypeCode: code,
		Name:     name,
		Comment:  strings.TrimSpace(r.Fields[4]),
	}, nil
}

// normalizeIdentifier strips surrounding spaces and closing parens,
// then removes any internal spaces
func normalizeIdentifier(s string) string {
	s = strings.Trim(s, " )")
	return strings.ReplaceAll(s, " ", "")
}
