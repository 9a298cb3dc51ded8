// Package cache provides byte caches for archive file blocks.
//
// # Block Cache (RAM)
//
// The ShardedLRUBlockCache stores recently read blocks of archive files.
// It spreads entries over 64 shards, each guarded by its own mutex.
//
// Key features:
//   - Shard selection by maphash over path and offset
//   - Optional admission policy
//   - Integrated with the resource controller for memory limits
//
// # Disk Cache (L2)
//
// For remote backends, DiskBlockCache keeps fetched blocks on local disk:
//   - Async writes so reads never wait on the cache
//   - LRU eviction with a configurable size limit
//   - Rebuilds its index from disk on startup
package cache
