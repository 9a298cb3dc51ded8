// Package blobstore provides the storage abstraction archives are read from.
//
// BlobStore is the interface for reading immutable archive files (listings,
// sheet headers, pages). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory store, mostly for tests
//   - LocalStore: local directory with mmap support
//   - BoltStore: single-file bbolt archive
//   - s3.Store: Amazon S3 with range reads and parallel downloads
//   - minio.Store: MinIO and other S3-compatible storage
//   - web.Store: plain HTTP file server
//
// # Decorators
//
//   - CachingStore: block-level read cache (RAM or disk, see internal/cache)
//   - CompressedStore: transparent .zst / .lz4 decompression
//   - LimitedStore: fetch concurrency and byte-rate limits
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Stores that can fetch a whole object in one round trip should also
// implement Fetcher; ReadAll prefers it.
package blobstore
