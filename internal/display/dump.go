// Package display formats hive structures for terminal output.
package display

import (
	"fmt"
	"io"

	"github.com/standardbeagle/hivegen/internal/regf"
)

// DumpOptions controls which cells a hive dump shows
type DumpOptions struct {
	// Filter limits output to one cell type when HasFilter is set
	Filter    regf.CellType
	HasFilter bool

	// AllocatedOnly hides free cells
	AllocatedOnly bool
}

// DumpHive walks a hive file and writes its base block, bin headers and
// cells to w in file order
func DumpHive(path string, w io.Writer, opts DumpOptions) error {
	f, err := regf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	base, err := f.ReadBaseBlock()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, base); err != nil {
		return err
	}
	if !base.SequenceNumbersMatch() {
		fmt.Fprintf(w, "note: sequence numbers differ (%d/%d), last write may be incomplete\n",
			base.PrimarySequenceNumber, base.SecondarySequenceNumber)
	}

	for {
		bin, err := f.NextBin()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "hbin %s\n", bin.Header); err != nil {
			return err
		}

		for {
			cell, err := bin.NextCell()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if opts.AllocatedOnly && !cell.Allocated() {
				continue
			}
			if opts.HasFilter && cell.Type != opts.Filter {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", cell); err != nil {
				return err
			}
		}
	}
}
