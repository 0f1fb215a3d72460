// Package emitter turns parsed table rows into source-code fragments.
//
// Two shapes are produced: match arms mapping a long key string to an
// enum variant, and struct field declarations sized by a numeric width
// code. Both emit exactly one fragment per input row, in input order,
// and fail fast on the first malformed row - whatever was already
// written stays on the output.
package emitter

import (
	"bufio"
	"fmt"
	"io"

	"github.com/standardbeagle/hivegen/internal/table"
)

// DefaultTypeName is the enum type referenced by generated match arms.
// The emitter only prints the name, it never defines or validates it.
const DefaultTypeName = "CellType"

// Options controls how input rows are split and what the generated
// fragments reference
type Options struct {
	Delimiter rune   // field separator, DefaultDelimiter when zero
	TypeName  string // enum type name, DefaultTypeName when empty
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return table.DefaultDelimiter
	}
	return o.Delimiter
}

func (o Options) typeName() string {
	if o.TypeName == "" {
		return DefaultTypeName
	}
	return o.TypeName
}

// EmitMatchArms reads a table from r and writes one match arm per
// non-empty row to w:
//
//	"<long>" => CellType::<short>,
//
// Row order is preserved exactly. The first malformed row aborts with a
// TableError carrying its line number.
func EmitMatchArms(r io.Reader, w io.Writer, opts Options) error {
	return scanRows(r, opts.delimiter(), func(row table.Row) error {
		m, err := row.Mapping()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%q => %s::%s,\n", m.Long, opts.typeName(), m.Short)
		return err
	})
}

// EmitStructFields reads a table from r and writes one field
// declaration per non-empty row to w, preceded by its comment column
// and followed by a blank line:
//
//	// <comment>
//	   <name>: u32,
//
// Width code 4 declares u32, code 8 declares u64, and any other code N
// declares a fixed [u8;N] array.
func EmitStructFields(r io.Reader, w io.Writer, opts Options) error {
	return scanRows(r, opts.delimiter(), func(row table.Row) error {
		f, err := row.Field()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "// %s\n", f.Comment); err != nil {
			return err
		}
		switch f.TypeCode {
		case 4:
			_, err = fmt.Fprintf(w, "   %s: u32,\n\n", f.Name)
		case 8:
			_, err = fmt.Fprintf(w, "   %s: u64,\n\n", f.Name)
		default:
			_, err = fmt.Fprintf(w, "   %s: [u8;%d],\n\n", f.Name, f.TypeCode)
		}
		return err
	})
}

// maxRowSize caps a single table row. Format-doc tables carry long
// description columns well past bufio's 64 KiB default token limit.
const maxRowSize = 16 * 1024 * 1024

// scanRows drives a strictly sequential pass over the input: each line
// becomes one Row, empty rows are skipped, the first error stops the scan
func scanRows(r io.Reader, delim rune, emit func(table.Row) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRowSize)
	line := 0
	for scanner.Scan() {
		line++
		row := table.Split(scanner.Text(), line, delim)
		if row.Empty() {
			continue
		}
		if err := emit(row); err != nil {
			return err
		}
	}
	return scanner.Err()
}
