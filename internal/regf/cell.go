package regf

import (
	"encoding/binary"
	"fmt"
)

// CellType classifies a cell by its two-byte signature
type CellType int

const (
	CellUnknown CellType = iota
	CellLeafIndex
	CellLeafFast
	CellLeafHash
	CellRootIndex
	CellNamedKey
	CellValueKey
	CellSecurityKey
	CellDataBlock
)

var cellTypeNames = map[CellType]string{
	CellLeafIndex:   "LeafIndex",   // subkeys list
	CellLeafFast:    "LeafFast",    // subkeys list with name hints
	CellLeafHash:    "LeafHash",    // subkeys list with name hashes
	CellRootIndex:   "RootIndex",   // list of subkeys lists
	CellNamedKey:    "NamedKey",    // registry key node
	CellValueKey:    "ValueKey",    // registry key value
	CellSecurityKey: "SecurityKey", // security descriptor
	CellDataBlock:   "DataBlock",   // list of data segments
}

var cellTypeSignatures = map[string]CellType{
	"li": CellLeafIndex,
	"lf": CellLeafFast,
	"lh": CellLeafHash,
	"ri": CellRootIndex,
	"nk": CellNamedKey,
	"vk": CellValueKey,
	"sk": CellSecurityKey,
	"db": CellDataBlock,
}

// CellTypeFromSignature maps a two-byte cell signature to its type
func CellTypeFromSignature(sig [2]byte) CellType {
	if t, ok := cellTypeSignatures[string(sig[:])]; ok {
		return t
	}
	return CellUnknown
}

// ParseCellType resolves a user-supplied name to a cell type. Both the
// long name ("NamedKey") and the on-disk signature ("nk") are accepted.
func ParseCellType(name string) (CellType, bool) {
	if t, ok := cellTypeSignatures[name]; ok {
		return t, true
	}
	for t, n := range cellTypeNames {
		if n == name {
			return t, true
		}
	}
	return CellUnknown, false
}

// CellTypeNames lists the long names of all known cell types
func CellTypeNames() []string {
	out := make([]string, 0, len(cellTypeNames))
	for t := CellLeafIndex; t <= CellDataBlock; t++ {
		out = append(out, cellTypeNames[t])
	}
	return out
}

// String returns the long name used in generated match arms
func (t CellType) String() string {
	if n, ok := cellTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// Cell is one allocation unit inside a hive bin
type Cell struct {
	// Declared size in bytes, negative while the cell is allocated
	Size int32

	// Two-byte signature the type was derived from
	Signature [2]byte

	Type CellType

	// Payload after size and signature
	Data []byte
}

// Allocated reports whether the cell is in use (negative declared size)
func (c *Cell) Allocated() bool {
	return c.Size < 0
}

// AbsSize returns the cell's size in bytes regardless of allocation state
func (c *Cell) AbsSize() uint32 {
	if c.Size < 0 {
		return uint32(-int64(c.Size))
	}
	return uint32(c.Size)
}

// String formats the cell for dump output, previewing the payload
func (c *Cell) String() string {
	preview := c.Data
	if len(preview) > 16 {
		preview = preview[:16]
	}
	return fmt.Sprintf("size: %d type: %s (%s) data: % X", c.Size, c.Type, c.Signature[:], preview)
}

// parseCell decodes one cell from the front of buf and reports how many
// bytes it consumed
func parseCell(buf []byte) (*Cell, uint32, error) {
	if len(buf) < 6 {
		return nil, 0, fmt.Errorf("truncated cell: %d bytes left", len(buf))
	}

	size := int32(binary.LittleEndian.Uint32(buf))
	abs := size
	if abs < 0 {
		abs = -abs
	}
	if abs < 6 {
		return nil, 0, fmt.Errorf("declared cell size %d too small", size)
	}
	if int(abs) > len(buf) {
		return nil, 0, fmt.Errorf("declared cell size %d exceeds remaining bin data %d", abs, len(buf))
	}

	var sig [2]byte
	copy(sig[:], buf[4:6])

	data := make([]byte, abs-6)
	copy(data, buf[6:abs])

	return &Cell{
		Size:      size,
		Signature: sig,
		Type:      CellTypeFromSignature(sig),
		Data:      data,
	}, uint32(abs), nil
}
