// Rust crate detection from Cargo.toml.
// Generated fragments are usually pasted into a hive parser crate; when
// the project root holds one, its layout decides where generated files
// land by default.
package project

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// RustCrate describes the consuming crate found in the project root
type RustCrate struct {
	Name   string
	Root   string
	SrcDir string
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// DetectRustCrate looks for a Cargo.toml in root. Returns nil without an
// error when there is none; generation then falls back to stdout.
func DetectRustCrate(root string) (*RustCrate, error) {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}

	crate := &RustCrate{
		Name: manifest.Package.Name,
		Root: root,
	}
	if src := filepath.Join(root, "src"); dirExists(src) {
		crate.SrcDir = src
	}
	return crate, nil
}

// DefaultOutputDir is where generated fragments go when the config does
// not name an output directory: <src>/generated inside the crate, or
// empty (stdout) when the crate has no src directory.
func (c *RustCrate) DefaultOutputDir() string {
	if c == nil || c.SrcDir == "" {
		return ""
	}
	return filepath.Join(c.SrcDir, "generated")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
