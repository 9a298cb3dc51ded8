package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0755))

	f, err := lfs.CreateTemp(dir, "tmp-*")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	final := filepath.Join(dir, "block.blk")
	require.NoError(t, lfs.Rename(f.Name(), final))

	data, err := lfs.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	var seen []string
	require.NoError(t, lfs.WalkDir(tmp, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			seen = append(seen, path)
		}
		return err
	}))
	assert.Equal(t, []string{final}, seen)

	require.NoError(t, lfs.Remove(final))
	_, err = lfs.ReadFile(final)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFaultyFS_WriteLimit(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	dir := filepath.Join(tmp, "limited")
	require.NoError(t, ffs.MkdirAll(dir, 0755))

	f, err := ffs.CreateTemp(dir, "tmp-*")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = f.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_SyncAndRename(t *testing.T) {
	tmp := t.TempDir()
	custom := os.ErrPermission
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("target", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnRename: true, Err: custom})

	f, err := ffs.OpenFile(filepath.Join(tmp, "target.blk"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("ok"))
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), custom)
	require.NoError(t, f.Close())

	err = ffs.Rename(filepath.Join(tmp, "target.blk"), filepath.Join(tmp, "target2.blk"))
	assert.ErrorIs(t, err, custom)

	ffs.ClearRules()
	require.NoError(t, ffs.Rename(filepath.Join(tmp, "target.blk"), filepath.Join(tmp, "target2.blk")))
}

func TestFaultyFS_CorruptReads(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "page.blk")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))

	ffs := NewFaultyFS(nil)
	data, err := ffs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	ffs.AddRule("page", Fault{FailAfterBytes: -1, CorruptReads: true})
	data, err = ffs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 0xfc}, data)
}
