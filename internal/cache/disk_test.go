package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/exdcache/internal/fs"
)

func TestDiskBlockCache(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewDiskBlockCache(DiskCacheConfig{
		RootDir:      tmpDir,
		MaxSizeBytes: 1024,
	})
	require.NoError(t, err)

	ctx := context.Background()
	key1 := CacheKey{Kind: CacheKindBlob, Path: "exd/item_0.exd", Offset: 0}
	c.Set(ctx, key1, make([]byte, 400))
	require.NoError(t, c.Close())

	relPath := c.encodeKeyToRelPath(key1)
	assert.FileExists(t, filepath.Join(tmpDir, relPath))

	got, ok := c.Get(ctx, key1)
	assert.True(t, ok)
	assert.Len(t, got, 400)

	key2 := CacheKey{Kind: CacheKindBlob, Path: "exd/item_0.exd", Offset: 1}
	key3 := CacheKey{Kind: CacheKindBlob, Path: "exd/item_0.exd", Offset: 2}
	c.Set(ctx, key2, make([]byte, 400))
	require.NoError(t, c.Close())
	c.Set(ctx, key3, make([]byte, 400))
	require.NoError(t, c.Close())

	// 1200 bytes > 1024: key1 is the least recently used.
	_, ok = c.Get(ctx, key1)
	assert.False(t, ok, "key1 should be evicted")
	assert.NoFileExists(t, filepath.Join(tmpDir, relPath))

	_, ok = c.Get(ctx, key2)
	assert.True(t, ok)
	_, ok = c.Get(ctx, key3)
	assert.True(t, ok)
	assert.Equal(t, int64(800), c.Size())
}

func TestDiskBlockCache_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	config := DiskCacheConfig{RootDir: tmpDir, MaxSizeBytes: 10000}
	key := CacheKey{Kind: CacheKindFile, Path: "exd/root.exl"}

	{
		c, err := NewDiskBlockCache(config)
		require.NoError(t, err)
		c.Set(context.Background(), key, []byte("hello"))
		require.NoError(t, c.Close())
	}

	c, err := NewDiskBlockCache(config)
	require.NoError(t, err)
	got, ok := c.Get(context.Background(), key)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, int64(5), c.Size())
}

func TestDiskBlockCache_Path(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: tmpDir, MaxSizeBytes: 10000})
	require.NoError(t, err)

	key := CacheKey{Kind: CacheKindBlob, Offset: 7, Path: "foo/bar"}
	c.Set(context.Background(), key, []byte("data"))
	require.NoError(t, c.Close())

	assert.FileExists(t, filepath.Join(tmpDir, "foo", "bar", "1-7.blk"))

	got, ok := c.Get(context.Background(), key)
	assert.True(t, ok)
	assert.Equal(t, "data", string(got))
}

func TestDiskBlockCache_Invalidate(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: tmpDir, MaxSizeBytes: 10000})
	require.NoError(t, err)

	ctx := context.Background()
	a := CacheKey{Kind: CacheKindBlob, Path: "a"}
	b := CacheKey{Kind: CacheKindBlob, Path: "b"}
	c.Set(ctx, a, []byte("1"))
	c.Set(ctx, b, []byte("2"))
	require.NoError(t, c.Close())

	c.Invalidate(func(k CacheKey) bool { return k.Path == "a" })

	_, ok := c.Get(ctx, a)
	assert.False(t, ok)
	_, ok = c.Get(ctx, b)
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestDiskBlockCache_OversizedBlockIgnored(t *testing.T) {
	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: t.TempDir(), MaxSizeBytes: 4})
	require.NoError(t, err)

	key := CacheKey{Kind: CacheKindBlob, Path: "big"}
	c.Set(context.Background(), key, []byte("too large"))
	require.NoError(t, c.Close())

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestDiskBlockCache_CorruptBlockDropped(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: tmpDir, MaxSizeBytes: 10000})
	require.NoError(t, err)

	ctx := context.Background()
	key := CacheKey{Kind: CacheKindBlob, Path: "exd/item_0.exd"}
	c.Set(ctx, key, []byte("page"))
	require.NoError(t, c.Close())

	path := filepath.Join(tmpDir, c.encodeKeyToRelPath(key))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, len("page")+4)

	raw[0] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0644))

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Corrupted())
	assert.Equal(t, int64(0), c.Size())
	assert.NoFileExists(t, path)
}

func TestDiskBlockCache_CorruptRead(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: t.TempDir(), MaxSizeBytes: 10000, FS: ffs})
	require.NoError(t, err)

	ctx := context.Background()
	key := CacheKey{Kind: CacheKindBlob, Path: "bitrot"}
	c.Set(ctx, key, []byte("data"))
	require.NoError(t, c.Close())

	ffs.AddRule("bitrot", fs.Fault{FailAfterBytes: -1, CorruptReads: true})
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Corrupted())
}

func TestDiskBlockCache_FailedWriteNotIndexed(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("broken", fs.Fault{FailAfterBytes: 2})
	ffs.AddRule("norename", fs.Fault{FailAfterBytes: -1, FailOnRename: true})

	c, err := NewDiskBlockCache(DiskCacheConfig{RootDir: tmpDir, MaxSizeBytes: 10000, FS: ffs})
	require.NoError(t, err)

	ctx := context.Background()
	for _, p := range []string{"broken", "norename"} {
		key := CacheKey{Kind: CacheKindBlob, Path: p}
		c.Set(ctx, key, []byte("payload"))
		require.NoError(t, c.Close())

		_, ok := c.Get(ctx, key)
		assert.False(t, ok, p)

		// The temporary file is cleaned up.
		entries, err := os.ReadDir(filepath.Join(tmpDir, p))
		require.NoError(t, err)
		assert.Empty(t, entries, p)
	}
	assert.Equal(t, int64(0), c.Size())
}
