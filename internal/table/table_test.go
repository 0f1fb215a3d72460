package table

import (
	"errors"
	"testing"

	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantFields []string
		wantEmpty  bool
	}{
		{
			name:       "basic record",
			raw:        "nk (Named Key)|4|Signature|0|Registry key node\n",
			wantFields: []string{"nk (Named Key)", "4", "Signature", "0", "Registry key node"},
		},
		{
			name:       "single field",
			raw:        "no delimiters here",
			wantFields: []string{"no delimiters here"},
		},
		{
			name:      "blank line",
			raw:       "   \n",
			wantEmpty: true,
		},
		{
			name:       "trailing whitespace stripped before split",
			raw:        "a|b|c   ",
			wantFields: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Split(tt.raw, 1, DefaultDelimiter)
			if row.Empty() != tt.wantEmpty {
				t.Fatalf("Empty() = %v, want %v", row.Empty(), tt.wantEmpty)
			}
			if tt.wantEmpty {
				return
			}
			if len(row.Fields) != len(tt.wantFields) {
				t.Fatalf("got %d fields, want %d: %v", len(row.Fields), len(tt.wantFields), row.Fields)
			}
			for i, f := range tt.wantFields {
				if row.Fields[i] != f {
					t.Errorf("field %d = %q, want %q", i, row.Fields[i], f)
				}
			}
		})
	}
}

func TestSplitCustomDelimiter(t *testing.T) {
	row := Split("a;b;c", 3, ';')
	if len(row.Fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(row.Fields))
	}
	if row.Line != 3 {
		t.Errorf("Line = %d, want 3", row.Line)
	}
}

func TestMapping(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantShort string
		wantLong  string
	}{
		{
			name:      "long identifier with internal spaces",
			raw:       "Foo (Bar Baz) |x|y|z",
			wantShort: "Foo",
			wantLong:  "BarBaz",
		},
		{
			name:      "no internal spaces",
			raw:       "A (B)|x",
			wantShort: "A",
			wantLong:  "B",
		},
		{
			name:      "empty long identifier is preserved",
			raw:       "A ()|x",
			wantShort: "A",
			wantLong:  "",
		},
		{
			name:      "cell signature row",
			raw:       "nk (Named Key)|key node",
			wantShort: "nk",
			wantLong:  "NamedKey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Split(tt.raw, 1, DefaultDelimiter)
			m, err := row.Mapping()
			if err != nil {
				t.Fatalf("Mapping() error: %v", err)
			}
			if m.Short != tt.wantShort {
				t.Errorf("Short = %q, want %q", m.Short, tt.wantShort)
			}
			if m.Long != tt.wantLong {
				t.Errorf("Long = %q, want %q", m.Long, tt.wantLong)
			}
		})
	}
}

func TestMappingMissingParen(t *testing.T) {
	row := Split("NamedKey|4|x", 12, DefaultDelimiter)
	_, err := row.Mapping()
	if err == nil {
		t.Fatal("expected error for field 0 without '('")
	}

	var terr *hgerrors.TableError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TableError, got %T", err)
	}
	if terr.Line != 12 {
		t.Errorf("Line = %d, want 12", terr.Line)
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCode    int
		wantName    string
		wantComment string
	}{
		{
			name:        "u32 column",
			raw:         "x|4|Root cell offset|0|Offset of a root cell in bytes",
			wantCode:    4,
			wantName:    "root_cell_offset",
			wantComment: "Offset of a root cell in bytes",
		},
		{
			name:        "u64 column",
			raw:         "x|8|Last written timestamp|0|FILETIME (UTC)",
			wantCode:    8,
			wantName:    "last_written_timestamp",
			wantComment: "FILETIME (UTC)",
		},
		{
			name:        "byte array column",
			raw:         "x|396|Reserved|0|unused",
			wantCode:    396,
			wantName:    "reserved",
			wantComment: "unused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Split(tt.raw, 1, DefaultDelimiter)
			f, err := row.Field()
			if err != nil {
				t.Fatalf("Field() error: %v", err)
			}
			if f.TypeCode != tt.wantCode {
				t.Errorf("TypeCode = %d, want %d", f.TypeCode, tt.wantCode)
			}
			if f.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", f.Name, tt.wantName)
			}
			if f.Comment != tt.wantComment {
				t.Errorf("Comment = %q, want %q", f.Comment, tt.wantComment)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	t.Run("too few fields", func(t *testing.T) {
		row := Split("a|b|c", 2, DefaultDelimiter)
		if _, err := row.Field(); err == nil {
			t.Fatal("expected error for row with 3 fields")
		}
	})

	t.Run("non-numeric type code", func(t *testing.T) {
		row := Split("a|four|name|0|comment", 2, DefaultDelimiter)
		if _, err := row.Field(); err == nil {
			t.Fatal("expected error for non-numeric type code")
		}
	})
}
