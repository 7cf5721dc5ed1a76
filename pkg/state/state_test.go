package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirsCreatesLayout(t *testing.T) {
	root := t.TempDir()
	p, err := EnsureDirs(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "batches"), p.Batches)
	for _, dir := range []string{p.Batches, p.Monitor, p.Crash, p.Tmp} {
		fi, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureDirsIdempotent(t *testing.T) {
	root := t.TempDir()
	_, err := EnsureDirs(root)
	require.NoError(t, err)
	_, err = EnsureDirs(root)
	assert.NoError(t, err)
}

func TestEnsureDirsRejectsFileCollision(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "batches"), []byte("x"), 0o600))
	_, err := EnsureDirs(root)
	assert.Error(t, err)
}

func TestEnsureDirsRejectsSymlink(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(root, "batches")))
	_, err := EnsureDirs(root)
	assert.Error(t, err)
}
