package emitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
)

func TestEmitMatchArms(t *testing.T) {
	input := strings.Join([]string{
		"li (Leaf Index)|Subkeys list",
		"nk (Named Key)|Registry key node",
		"vk (Value Key)|Registry key value",
	}, "\n")

	var out strings.Builder
	require.NoError(t, EmitMatchArms(strings.NewReader(input), &out, Options{}))

	want := `"LeafIndex" => CellType::li,
"NamedKey" => CellType::nk,
"ValueKey" => CellType::vk,
`
	assert.Equal(t, want, out.String())
}

func TestEmitMatchArmsShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "internal spaces stripped from long identifier",
			input: "Foo (Bar Baz) |x|y|z",
			want:  "\"BarBaz\" => CellType::Foo,\n",
		},
		{
			name:  "no internal spaces",
			input: "A (B)|x",
			want:  "\"B\" => CellType::A,\n",
		},
		{
			name:  "empty long identifier preserved",
			input: "A ()|x",
			want:  "\"\" => CellType::A,\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			require.NoError(t, EmitMatchArms(strings.NewReader(tt.input), &out, Options{}))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestEmitMatchArmsOrderAndCount(t *testing.T) {
	lines := []string{
		"a (First)|1",
		"",
		"b (Second)|2",
		"   ",
		"c (Third)|3",
	}

	var out strings.Builder
	require.NoError(t, EmitMatchArms(strings.NewReader(strings.Join(lines, "\n")), &out, Options{}))

	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, got, 3, "one output line per non-empty input line")
	assert.Equal(t, `"First" => CellType::a,`, got[0])
	assert.Equal(t, `"Second" => CellType::b,`, got[1])
	assert.Equal(t, `"Third" => CellType::c,`, got[2])
}

func TestEmitMatchArmsIdempotent(t *testing.T) {
	input := "nk (Named Key)|x\nvk (Value Key)|y\n"

	var first, second strings.Builder
	require.NoError(t, EmitMatchArms(strings.NewReader(input), &first, Options{}))
	require.NoError(t, EmitMatchArms(strings.NewReader(input), &second, Options{}))

	assert.Equal(t, first.String(), second.String())
}

func TestEmitMatchArmsFailFast(t *testing.T) {
	input := strings.Join([]string{
		"a (First)|1",
		"no paren here|2",
		"c (Third)|3",
	}, "\n")

	var out strings.Builder
	err := EmitMatchArms(strings.NewReader(input), &out, Options{})
	require.Error(t, err)

	var terr *hgerrors.TableError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 2, terr.Line)

	// rows before the failure were already flushed, nothing after it ran
	assert.Equal(t, "\"First\" => CellType::a,\n", out.String())
}

func TestEmitMatchArmsLongRow(t *testing.T) {
	// a row far past bufio's 64 KiB default token limit still parses
	long := strings.Repeat("B", 200_000)
	input := "A (" + long + ")|" + strings.Repeat("c", 100_000) + "\n"

	var out strings.Builder
	require.NoError(t, EmitMatchArms(strings.NewReader(input), &out, Options{}))
	assert.Equal(t, "\""+long+"\" => CellType::A,\n", out.String())
}

func TestEmitMatchArmsOptions(t *testing.T) {
	var out strings.Builder
	opts := Options{Delimiter: ';', TypeName: "KeyKind"}
	require.NoError(t, EmitMatchArms(strings.NewReader("nk (Named Key);x"), &out, opts))
	assert.Equal(t, "\"NamedKey\" => KeyKind::nk,\n", out.String())
}

func TestEmitStructFields(t *testing.T) {
	input := strings.Join([]string{
		"x|4|Root cell offset|0|Offset of a root cell in bytes",
		"x|8|Last written timestamp|0|FILETIME (UTC)",
		"x|396|Reserved|0|unused",
	}, "\n")

	var out strings.Builder
	require.NoError(t, EmitStructFields(strings.NewReader(input), &out, Options{}))

	want := `// Offset of a root cell in bytes
   root_cell_offset: u32,

// FILETIME (UTC)
   last_written_timestamp: u64,

// unused
   reserved: [u8;396],

`
	assert.Equal(t, want, out.String())
}

func TestEmitStructFieldsFailFast(t *testing.T) {
	input := "x|4|Name|0|ok\nx|not-a-number|Name|0|bad\n"

	var out strings.Builder
	err := EmitStructFields(strings.NewReader(input), &out, Options{})
	require.Error(t, err)

	var terr *hgerrors.TableError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 2, terr.Line)
	assert.Equal(t, "// ok\n   name: u32,\n\n", out.String())
}
