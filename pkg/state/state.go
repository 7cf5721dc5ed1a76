// Package state owns the on-disk layout of the agent data directory.
package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved runtime folder layout under the data directory.
type Paths struct {
	Batches string // pebble batch store
	Monitor string // internal diagnostics records
	Crash   string // crash dumps
	Tmp     string
}

// Resolve maps a data directory onto the canonical layout.
func Resolve(dataDir string) Paths {
	statePath := filepath.Join(dataDir, "state")
	return Paths{
		Batches: filepath.Join(dataDir, "batches"),
		Monitor: filepath.Join(statePath, "monitor"),
		Crash:   filepath.Join(statePath, "crash"),
		Tmp:     filepath.Join(statePath, "tmp"),
	}
}

// EnsureDirs creates the runtime folder layout under the data directory. It
// rejects symlinks and permissive modes and verifies each path is writable.
func EnsureDirs(dataDir string) (Paths, error) {
	p := Resolve(dataDir)
	for _, dir := range []string{p.Batches, p.Monitor, p.Crash, p.Tmp} {
		if err := os.MkdirAll(filepath.Dir(dir), 0o700); err != nil {
			return p, fmt.Errorf("cannot create parent for %s: %w", dir, err)
		}

		if fi, err := os.Lstat(dir); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return p, fmt.Errorf("path is a symlink: %s", dir)
			}
			if !fi.IsDir() {
				return p, fmt.Errorf("path exists and is not a directory: %s", dir)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return p, fmt.Errorf("path has permissive mode (group/other write): %s", dir)
			}
		}

		if err := os.MkdirAll(dir, 0o700); err != nil {
			return p, fmt.Errorf("cannot create path %s: %w", dir, err)
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(dir, ".validate-*")
		if err != nil {
			return p, fmt.Errorf("path not writable: %s: %w", dir, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return p, nil
}
