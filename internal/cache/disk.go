package cache

import (
	"context"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/exdcache/internal/fs"
	"github.com/hupe1980/exdcache/internal/hash"
)

// DiskCacheConfig holds configuration for the disk cache.
type DiskCacheConfig struct {
	// RootDir is the directory where cache files are stored.
	RootDir string
	// MaxSizeBytes is the maximum size of the cache in bytes.
	MaxSizeBytes int64
	// MaxConcurrentWrites limits background disk writes.
	// Defaults to 16 if <= 0.
	MaxConcurrentWrites int64
	// FS is the file system the cache writes to. Defaults to fs.Default.
	FS fs.FileSystem
}

// DiskBlockCache implements BlockCache backed by the local filesystem.
// It maintains an in-memory LRU index of the files on disk.
//
// Every file carries a CRC32C trailer. A block whose trailer does not match
// is removed and reported as a miss.
type DiskBlockCache struct {
	mu          sync.Mutex
	fs          fs.FileSystem
	rootDir     string
	maxSize     int64
	currentSize int64

	writeSem *semaphore.Weighted

	items   map[CacheKey]*lruEntry
	lruHead *lruEntry
	lruTail *lruEntry
	wg      sync.WaitGroup

	hits    atomic.Int64
	misses  atomic.Int64
	corrupt atomic.Int64
}

type lruEntry struct {
	key        CacheKey
	size       int64
	filePath   string
	next, prev *lruEntry
}

// NewDiskBlockCache creates a new disk-backed block cache.
// It scans the directory to rebuild the index on startup.
func NewDiskBlockCache(config DiskCacheConfig) (*DiskBlockCache, error) {
	fsys := config.FS
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(config.RootDir, 0755); err != nil {
		return nil, err
	}

	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	c := &DiskBlockCache{
		fs:       fsys,
		rootDir:  config.RootDir,
		maxSize:  config.MaxSizeBytes,
		items:    make(map[CacheKey]*lruEntry),
		writeSem: semaphore.NewWeighted(maxWrites),
	}
	c.scanExistingFiles()

	return c, nil
}

func (c *DiskBlockCache) scanExistingFiles() {
	// Layout: root/<Path>/<Kind>-<Offset>.blk
	_ = c.fs.WalkDir(c.rootDir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // keep scanning past unreadable entries
		}
		key, ok := c.parsePathToKey(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		size := info.Size() - hash.TrailerSize
		if size < 0 {
			_ = c.fs.Remove(path)
			return nil
		}
		c.addToLRU(key, path, size)
		return nil
	})
}

func (c *DiskBlockCache) encodeKeyToRelPath(key CacheKey) string {
	fileName := fmt.Sprintf("%d-%d.blk", key.Kind, key.Offset)
	if key.Path != "" {
		return filepath.Join(filepath.FromSlash(key.Path), fileName)
	}
	return filepath.Join("_misc", fileName)
}

func (c *DiskBlockCache) parsePathToKey(absPath string) (CacheKey, bool) {
	relPath, err := filepath.Rel(c.rootDir, absPath)
	if err != nil {
		return CacheKey{}, false
	}

	dir, file := filepath.Split(relPath)

	var kind int
	var off uint64
	n, err := fmt.Sscanf(file, "%d-%d.blk", &kind, &off)
	if err != nil || n != 2 {
		return CacheKey{}, false
	}

	k := CacheKey{Kind: CacheKind(kind), Offset: off}
	dir = strings.TrimSuffix(dir, string(filepath.Separator))
	if dir != "" && dir != "_misc" {
		k.Path = filepath.ToSlash(dir)
	}
	return k, true
}

func (c *DiskBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	ent, ok := c.items[key]
	if ok {
		c.moveToFront(ent)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	buf, err := c.fs.ReadFile(ent.filePath)
	if err == nil {
		var data []byte
		if data, err = hash.SplitTrailer(buf); err == nil {
			c.hits.Add(1)
			return data, true
		}
		c.corrupt.Add(1)
		_ = c.fs.Remove(ent.filePath)
	}

	c.mu.Lock()
	if cur, ok := c.items[key]; ok && cur == ent {
		c.removeEntry(ent)
	}
	c.mu.Unlock()
	c.misses.Add(1)
	return nil, false
}

func (c *DiskBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	if ent, ok := c.items[key]; ok {
		// Blocks are immutable; an existing entry is never rewritten.
		c.moveToFront(ent)
		c.mu.Unlock()
		return
	}
	size := int64(len(b))
	if size > c.maxSize {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// If all write slots are busy, skip caching this block.
	if !c.writeSem.TryAcquire(1) {
		return
	}

	absPath := filepath.Join(c.rootDir, c.encodeKeyToRelPath(key))

	// The index is only updated after the rename, so concurrent readers miss
	// until the block is durable.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.writeSem.Release(1)

		if err := c.writeFileAtomic(absPath, b); err != nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.items[key]; ok {
			return
		}
		for c.currentSize+size > c.maxSize && c.lruTail != nil {
			c.evictOne()
		}
		c.addToLRU(key, absPath, size)
	}()
}

func (c *DiskBlockCache) writeFileAtomic(absPath string, b []byte) (err error) {
	dir := filepath.Dir(absPath)
	if err := c.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmpFile, err := c.fs.CreateTemp(dir, "tmp-blk-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = c.fs.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(b); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(hash.AppendTrailer(nil, b)); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return c.fs.Rename(tmpName, absPath)
}

func (c *DiskBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*lruEntry
	for k, ent := range c.items {
		if predicate(k) {
			toRemove = append(toRemove, ent)
		}
	}
	for _, ent := range toRemove {
		_ = c.fs.Remove(ent.filePath)
		c.removeEntry(ent)
	}
}

// Close waits for all background writes to complete.
func (c *DiskBlockCache) Close() error {
	c.wg.Wait()
	return nil
}

func (c *DiskBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Corrupted returns the number of blocks dropped because their checksum did
// not match.
func (c *DiskBlockCache) Corrupted() int64 {
	return c.corrupt.Load()
}

// Size returns the number of bytes currently indexed.
func (c *DiskBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Internal LRU helpers (must hold lock)

func (c *DiskBlockCache) addToLRU(key CacheKey, path string, size int64) {
	ent := &lruEntry{
		key:      key,
		filePath: path,
		size:     size,
	}
	c.items[key] = ent
	c.currentSize += size

	if c.lruHead == nil {
		c.lruHead = ent
		c.lruTail = ent
		return
	}
	ent.next = c.lruHead
	c.lruHead.prev = ent
	c.lruHead = ent
}

func (c *DiskBlockCache) moveToFront(ent *lruEntry) {
	if c.lruHead == ent {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if c.lruTail == ent {
		c.lruTail = ent.prev
	}

	ent.next = c.lruHead
	ent.prev = nil
	if c.lruHead != nil {
		c.lruHead.prev = ent
	}
	c.lruHead = ent
	if c.lruTail == nil {
		c.lruTail = ent
	}
}

func (c *DiskBlockCache) removeEntry(ent *lruEntry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.lruHead = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.lruTail = ent.prev
	}
	ent.prev, ent.next = nil, nil

	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

func (c *DiskBlockCache) evictOne() {
	if c.lruTail == nil {
		return
	}
	_ = c.fs.Remove(c.lruTail.filePath)
	c.removeEntry(c.lruTail)
}
