package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	require.NoError(t, WriteAtomic(path, 0o644, []byte("head"), nil, []byte("payload")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "headpayload", string(data))

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), st.Mode().Perm())

	require.NoError(t, WriteAtomic(path, 0o644, []byte("new")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteAtomic_Failure(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing directory", func(t *testing.T) {
		err := WriteAtomic(filepath.Join(dir, "missing", "out.bin"), 0o644, []byte("x"))
		require.Error(t, err)
	})

	t.Run("destination is a directory", func(t *testing.T) {
		target := filepath.Join(dir, "taken")
		require.NoError(t, os.Mkdir(target, 0o755))

		err := WriteAtomic(target, 0o644, []byte("x"))
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestRemoveFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))

	RemoveFiles([]string{a, filepath.Join(dir, "never-written")})

	_, err := os.Stat(a)
	require.True(t, os.IsNotExist(err))
}
