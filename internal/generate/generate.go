// Package generate orchestrates table-to-code generation: it resolves
// input tables from paths or glob patterns, runs the requested emitter
// over each one and delivers the output to stdout or to per-table files.
//
// A single output stream is strictly sequential so fragment order always
// matches input order. Distinct output files have no ordering relation,
// so file-mode generation fans out across tables.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/hivegen/internal/emitter"
	hgerrors "github.com/standardbeagle/hivegen/internal/errors"
	"github.com/standardbeagle/hivegen/pkg/pathutil"
)

// Kind selects which emitter shape a run produces
type Kind int

const (
	// MatchArms generates `"<long>" => CellType::<short>,` lines
	MatchArms Kind = iota
	// StructFields generates commented field declarations
	StructFields
)

func (k Kind) String() string {
	if k == StructFields {
		return "fields"
	}
	return "arms"
}

// Request describes one generation run
type Request struct {
	// Root anchors relative patterns and output paths
	Root string

	// Tables are explicit file paths or doublestar glob patterns
	Tables []string

	Kind    Kind
	Options emitter.Options

	// OutputDir receives one generated file per table; empty means
	// everything is written to Stdout in table order
	OutputDir string

	Stdout io.Writer
}

// FileResult reports what happened to one output file
type FileResult struct {
	Table   string
	Output  string
	Written bool // false when the fingerprint matched and the write was skipped
}

// Run resolves the request's tables and generates output for each.
// Stdout mode processes tables sequentially; file mode generates
// concurrently, one goroutine per table, bounded by GOMAXPROCS.
func Run(ctx context.Context, req Request) ([]FileResult, error) {
	tables, err := ResolveTables(req.Root, req.Tables)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no input tables matched %v", req.Tables)
	}

	if req.OutputDir == "" {
		for _, path := range tables {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := generateTable(path, req.Stdout, req.Kind, req.Options); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, err
	}

	results := make([]FileResult, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := generateTable(path, &buf, req.Kind, req.Options); err != nil {
				return err
			}

			out := outputPath(req.OutputDir, req.Root, path, req.Kind)
			written, err := writeIfChanged(out, buf.Bytes())
			if err != nil {
				return err
			}
			results[i] = FileResult{Table: path, Output: out, Written: written}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveTables expands patterns into a sorted, deduplicated list of
// table files. Literal paths are taken as-is; anything else goes through
// doublestar against the root.
func ResolveTables(root string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	add := func(path string) {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			out = append(out, path)
		}
	}

	for _, pattern := range patterns {
		abs := pathutil.ToAbsolute(pattern, root)

		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			add(abs)
			continue
		}

		matches, err := doublestar.FilepathGlob(filepath.ToSlash(abs))
		if err != nil {
			return nil, fmt.Errorf("bad table pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// generateTable runs one emitter pass over a single table file
func generateTable(path string, w io.Writer, kind Kind, opts emitter.Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch kind {
	case StructFields:
		err = emitter.EmitStructFields(f, w, opts)
	default:
		err = emitter.EmitMatchArms(f, w, opts)
	}

	// stamp the source path onto row errors so the user can find the line
	var terr *hgerrors.TableError
	if errors.As(err, &terr) && terr.FilePath == "" {
		terr.WithFile(path)
	}
	return err
}

// outputPath derives the generated file name from the table's path
// relative to root, preserving subdirectories so tables with the same
// stem in different directories keep distinct outputs:
// <root>/tables/cells.txt -> <outputDir>/tables/cells_arms.rs
func outputPath(outputDir, root, table string, kind Kind) string {
	rel := pathutil.ToRelative(table, root)
	if filepath.IsAbs(rel) {
		// table outside the root, only its base name is meaningful
		rel = filepath.Base(rel)
	}
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.rs", stem, kind))
}

// writeIfChanged writes content to path unless the existing file already
// has the same fingerprint. Skipping the write keeps mtimes stable for
// downstream build tools.
func writeIfChanged(path string, content []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == xxhash.Sum64(content) {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
