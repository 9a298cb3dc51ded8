package cache

import (
	"context"
)

// CacheKind is used to separate key spaces and tuning.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // byte blocks of an archive file
	CacheKindFile              // whole archive files (headers, pages, root list)
)

// CacheKey must be stable across processes.
type CacheKey struct {
	Kind CacheKind
	// Offset is a logical block identifier (byte offset or block index).
	Offset uint64
	// Path identifies the source file inside the archive.
	Path string
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must treat b as immutable.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources (e.g. background workers).
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

// AdmissionPolicy decides whether a value should be cached.
type AdmissionPolicy interface {
	Admit(key CacheKey, sizeBytes int) bool
}

// MaxSizeAdmission admits blocks no larger than the given number of bytes.
type MaxSizeAdmission int

func (m MaxSizeAdmission) Admit(_ CacheKey, sizeBytes int) bool {
	return sizeBytes <= int(m)
}
