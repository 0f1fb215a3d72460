// Package regf reads Windows registry hive files (REGF format).
//
// Layout of a hive file:
//
//	+--------------------+------------------------------+
//	|     Base block     |        Hive bins data        |
//	+--------------------+------------------------------+
//	                                   |
//	                                   v
//	            +-----------+  +-----------+      +-----------+
//	            |  Hive bin |  |  Hive bin |  ... |  Hive bin |
//	            +-----------+  +-----------+      +-----------+
//	                    |
//	                    v
//	        +-------------------+---------+-----+---------+
//	        | Hive bin header   |  Cell   | ... |  Cell   |
//	        |     (32 bytes)    |         |     |         |
//	        +-------------------+---------+-----+---------+
//
// The reader walks bins and cells strictly sequentially; it decodes cell
// signatures but does not interpret cell payloads.
//
// Format reference:
// https://github.com/msuhanov/regf/blob/master/Windows%20registry%20file%20format%20specification.md
package regf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unicode/utf16"

	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
)

const (
	// BaseBlockSize is the fixed size of the file header
	BaseBlockSize = 4096

	// HiveBinHeaderSize is the fixed size of each bin header
	HiveBinHeaderSize = 32

	// checksummedBytes is the length of the base block prefix covered
	// by the XOR-32 checksum
	checksummedBytes = 508
)

var (
	baseBlockSignature = [4]byte{'r', 'e', 'g', 'f'}
	hiveBinSignature   = [4]byte{'h', 'b', 'i', 'n'}
)

// BaseBlock is the 4096-byte file header. All integers are little-endian.
type BaseBlock struct {
	Signature [4]byte

	// Incremented at the start of a write to the primary file
	PrimarySequenceNumber uint32

	// Incremented at the end of a write; equal to the primary number
	// after a successful write
	SecondarySequenceNumber uint32

	// FILETIME (UTC)
	LastWrittenTimestamp uint64

	MajorVersion uint32
	MinorVersion uint32

	// 0 means primary file
	FileType uint32

	// 1 means direct memory load
	FileFormat uint32

	// Offset of the root cell relative to the start of the hive bins data
	RootCellOffset uint32

	// Size of the hive bins data in bytes
	HiveBinsDataSize uint32

	// Logical sector size of the underlying disk divided by 512
	ClusteringFactor uint32

	// UTF-16LE partial path or file name of the primary file
	FileName [32]uint16

	Reserved1 [396]byte

	// XOR-32 checksum of the previous 508 bytes
	Checksum uint32

	Reserved2 [3576]byte

	// No meaning on disk
	BootType    uint32
	BootRecover uint32
}

// FileNameString decodes the UTF-16LE file name, dropping the NUL padding
func (b *BaseBlock) FileNameString() string {
	units := b.FileName[:]
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}

// SequenceNumbersMatch reports whether the last write completed cleanly
func (b *BaseBlock) SequenceNumbersMatch() bool {
	return b.PrimarySequenceNumber == b.SecondarySequenceNumber
}

// String summarizes the header fields worth showing in a dump
func (b *BaseBlock) String() string {
	return fmt.Sprintf("signature: %s\nmajor version: %d\nminor version: %d\nhive bins data size: %d\nfile name: %s",
		b.Signature[:], b.MajorVersion, b.MinorVersion, b.HiveBinsDataSize, b.FileNameString())
}

// File is a sequential reader over a registry hive. ReadBaseBlock must be
// called before the first NextBin; bins and cells come back in file order.
type File struct {
	r    *bufio.Reader
	f    *os.File
	path string

	// a hive can carry leftover data past the declared bins size, the
	// counters bound the walk to what the header promises
	totalBinsSize   uint32
	currentBinsSize uint32
}

// Open opens a hive file for sequential reading
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{r: bufio.NewReader(f), f: f, path: path}, nil
}

// NewReader wraps an arbitrary stream, mainly for tests
func NewReader(r io.Reader) *File {
	return &File{r: bufio.NewReader(r)}
}

// Close closes the underlying file
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	return f.f.Close()
}

// ReadBaseBlock decodes and validates the 4096-byte header
func (f *File) ReadBaseBlock() (*BaseBlock, error) {
	raw := make([]byte, BaseBlockSize)
	if _, err := io.ReadFull(f.r, raw); err != nil {
		return nil, hgerrors.NewHiveError("base block", err).WithFile(f.path)
	}

	var b BaseBlock
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &b); err != nil {
		return nil, hgerrors.NewHiveError("base block", err).WithFile(f.path)
	}

	if b.Signature != baseBlockSignature {
		return nil, hgerrors.NewHiveError("base block",
			fmt.Errorf("bad signature %q, want %q", b.Signature[:], baseBlockSignature[:])).WithFile(f.path)
	}
	if sum := Checksum(raw[:checksummedBytes]); sum != b.Checksum {
		return nil, hgerrors.NewHiveError("base block",
			fmt.Errorf("checksum mismatch: stored 0x%X, computed 0x%X", b.Checksum, sum)).WithFile(f.path)
	}

	f.totalBinsSize = b.HiveBinsDataSize
	f.currentBinsSize = 0
	return &b, nil
}

// NextBin reads the next hive bin, or io.EOF once the declared hive bins
// data size has been consumed
func (f *File) NextBin() (*HiveBin, error) {
	if f.currentBinsSize >= f.totalBinsSize {
		return nil, io.EOF
	}

	offset := int64(BaseBlockSize) + int64(f.currentBinsSize)

	var h HiveBinHeader
	if err := binary.Read(f.r, binary.LittleEndian, &h); err != nil {
		return nil, hgerrors.NewHiveError("hive bin", err).WithFile(f.path).WithOffset(offset)
	}
	if h.Signature != hiveBinSignature {
		return nil, hgerrors.NewHiveError("hive bin",
			fmt.Errorf("bad signature %q, want %q", h.Signature[:], hiveBinSignature[:])).
			WithFile(f.path).WithOffset(offset)
	}
	if h.Size < HiveBinHeaderSize {
		return nil, hgerrors.NewHiveError("hive bin",
			fmt.Errorf("declared size %d smaller than header", h.Size)).
			WithFile(f.path).WithOffset(offset)
	}

	data := make([]byte, h.Size-HiveBinHeaderSize)
	if _, err := io.ReadFull(f.r, data); err != nil {
		return nil, hgerrors.NewHiveError("hive bin", err).WithFile(f.path).WithOffset(offset)
	}

	f.currentBinsSize += h.Size
	return &HiveBin{Header: h, data: data, binOffset: offset}, nil
}

// HiveBinHeader is the 32-byte bin header
type HiveBinHeader struct {
	Signature [4]byte

	// Offset of this bin relative to the start of the hive bins data
	Offset uint32

	// Size of this bin in bytes, header included
	Size uint32

	Reserved uint64

	// FILETIME (UTC), defined for the first bin only
	Timestamp uint64

	Spare uint32
}

// String formats the header for dump output
func (h HiveBinHeader) String() string {
	return fmt.Sprintf("signature: %s offset: 0x%X size: 0x%X", h.Signature[:], h.Offset, h.Size)
}

// HiveBin holds one bin's header and raw cell data
type HiveBin struct {
	Header HiveBinHeader

	data      []byte
	pos       uint32
	binOffset int64
}

// NextCell reads the next cell from the bin, or io.EOF once the bin's
// cell data is exhausted
func (b *HiveBin) NextCell() (*Cell, error) {
	if b.pos >= uint32(len(b.data)) {
		return nil, io.EOF
	}

	offset := b.binOffset + HiveBinHeaderSize + int64(b.pos)
	cell, consumed, err := parseCell(b.data[b.pos:])
	if err != nil {
		return nil, hgerrors.NewHiveError("cell", err).WithOffset(offset)
	}

	b.pos += consumed
	return cell, nil
}

// Checksum computes the XOR-32 checksum over the base block prefix.
// The format reserves the values 0 and 0xFFFFFFFF.
func Checksum(prefix []byte) uint32 {
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
