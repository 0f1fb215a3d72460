// Package testhelpers builds synthetic registry hive files for tests.
//
// The builders produce byte-exact REGF structures (4096-byte base block,
// 32-byte bin headers, size-prefixed cells) so reader tests never depend
// on real hive fixtures.
package testhelpers

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

const (
	baseBlockSize     = 4096
	hiveBinHeaderSize = 32
	checksummedBytes  = 508
)

// BuildBaseBlock assembles a minimal valid base block declaring binsSize
// bytes of hive bins data, with matching sequence numbers, a "SYSTEM"
// file name and a correct XOR-32 checksum.
func BuildBaseBlock(binsSize uint32) []byte {
	raw := make([]byte, baseBlockSize)
	copy(raw[0:4], "regf")
	binary.LittleEndian.PutUint32(raw[4:], 3)  // primary sequence number
	binary.LittleEndian.PutUint32(raw[8:], 3)  // secondary sequence number
	binary.LittleEndian.PutUint32(raw[20:], 1) // major version
	binary.LittleEndian.PutUint32(raw[24:], 5) // minor version
	binary.LittleEndian.PutUint32(raw[36:], 0x20)
	binary.LittleEndian.PutUint32(raw[40:], binsSize)
	binary.LittleEndian.PutUint32(raw[44:], 1) // clustering factor

	for i, u := range utf16.Encode([]rune("SYSTEM")) {
		binary.LittleEndian.PutUint16(raw[48+2*i:], u)
	}

	binary.LittleEndian.PutUint32(raw[508:], xor32(raw[:checksummedBytes]))
	return raw
}

// BuildCell assembles one cell. A negative size marks the cell as
// allocated; the payload after size and signature is filled with fill.
func BuildCell(size int32, sig string, fill byte) []byte {
	abs := size
	if abs < 0 {
		abs = -abs
	}
	if abs < 6 {
		panic(fmt.Sprintf("cell size %d cannot hold size prefix and signature", size))
	}

	buf := make([]byte, abs)
	binary.LittleEndian.PutUint32(buf, uint32(size))
	copy(buf[4:6], sig)
	for i := 6; i < int(abs); i++ {
		buf[i] = fill
	}
	return buf
}

// BuildBin assembles a hive bin of the given total size from cells and
// pads the remainder with a single free cell
func BuildBin(offset, size uint32, cells ...[]byte) []byte {
	buf := make([]byte, 0, size)
	header := make([]byte, hiveBinHeaderSize)
	copy(header[0:4], "hbin")
	binary.LittleEndian.PutUint32(header[4:], offset)
	binary.LittleEndian.PutUint32(header[8:], size)
	buf = append(buf, header...)

	for _, c := range cells {
		buf = append(buf, c...)
	}

	switch pad := int(size) - len(buf); {
	case pad < 0:
		panic(fmt.Sprintf("cells overflow bin size %d by %d bytes", size, -pad))
	case pad > 0 && pad < 6:
		panic(fmt.Sprintf("padding of %d bytes cannot hold a free cell", pad))
	case pad > 0:
		buf = append(buf, BuildCell(int32(pad), "\x00\x00", 0)...)
	}
	return buf
}

// WriteHiveFile concatenates the chunks into a hive file under dir and
// returns its path
func WriteHiveFile(t testing.TB, dir string, chunks ...[]byte) string {
	t.Helper()

	var all []byte
	for _, c := range chunks {
		all = append(all, c...)
	}

	path := filepath.Join(dir, "TESTHIVE")
	if err := os.WriteFile(path, all, 0o644); err != nil {
		t.Fatalf("failed to write test hive: %v", err)
	}
	return path
}

// xor32 mirrors the base block checksum: XOR of the prefix as
// little-endian dwords, with the reserved values 0 and 0xFFFFFFFF mapped
// to 1 and 0xFFFFFFFE
func xor32(prefix []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(prefix); i += 4 {
		sum ^= binary.LittleEndian.Uint32(prefix[i:])
	}
	switch sum {
	case 0:
		return 1
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	default:
		return sum
	}
}
