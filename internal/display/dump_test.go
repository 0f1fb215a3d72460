package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/hivegen/internal/regf"
	"github.com/standardbeagle/hivegen/testhelpers"
)

func writeTestHive(t *testing.T) string {
	t.Helper()
	return testhelpers.WriteHiveFile(t, t.TempDir(),
		testhelpers.BuildBaseBlock(4096),
		testhelpers.BuildBin(0, 4096,
			testhelpers.BuildCell(-32, "nk", 0xAA),
			testhelpers.BuildCell(-16, "vk", 0xBB),
		),
	)
}

func TestDumpHive(t *testing.T) {
	path := writeTestHive(t)

	var out strings.Builder
	require.NoError(t, DumpHive(path, &out, DumpOptions{}))

	dump := out.String()
	assert.Contains(t, dump, "signature: regf")
	assert.Contains(t, dump, "file name: SYSTEM")
	assert.Contains(t, dump, "hbin signature: hbin")
	assert.Contains(t, dump, "type: NamedKey (nk)")
	assert.Contains(t, dump, "type: ValueKey (vk)")
	assert.Contains(t, dump, "type: Unknown") // the free padding cell
}

func TestDumpHiveFilter(t *testing.T) {
	path := writeTestHive(t)

	var out strings.Builder
	require.NoError(t, DumpHive(path, &out, DumpOptions{
		Filter:    regf.CellNamedKey,
		HasFilter: true,
	}))

	dump := out.String()
	assert.Contains(t, dump, "type: NamedKey (nk)")
	assert.NotContains(t, dump, "type: ValueKey")
	assert.NotContains(t, dump, "type: Unknown")
}

func TestDumpHiveAllocatedOnly(t *testing.T) {
	path := writeTestHive(t)

	var out strings.Builder
	require.NoError(t, DumpHive(path, &out, DumpOptions{AllocatedOnly: true}))

	assert.NotContains(t, out.String(), "type: Unknown")
}

func TestDumpHiveMissingFile(t *testing.T) {
	var out strings.Builder
	require.Error(t, DumpHive("/does/not/exist", &out, DumpOptions{}))
}
