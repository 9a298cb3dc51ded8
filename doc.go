// Package exdcache provides cached, concurrency-safe access to an archive of
// sheets fetched on demand from a pluggable backend.
//
// A sheet has a header and one or more language variants split into pages.
// The Provider fetches each header once, loads variants on request and shares
// every in-flight load between concurrent callers.
//
// # Quick Start
//
//	ctx := context.Background()
//	src := source.FromBlobs(blobstore.NewLocalStore("/path/to/sqpack-export"))
//	p, _ := exdcache.Open(ctx, src)
//	defer p.Close()
//
//	names, _ := p.Names(ctx)
//	tbl, _ := p.Sheet(ctx, "Item", exd.LanguageEnglish)
//	row, _ := tbl.Row(4)
//	name, _ := row.String(0)
//
// # Caching
//
// Headers live in an LRU keyed by sheet name (WithHeaderCacheSize). Under each
// header, loaded variants live in a slot that holds one language at a time;
// WithVariantCacheSize keeps several languages per sheet instead.
//
// Failed loads are cached like successful ones, so every caller sees the same
// error until the entry is evicted. Use Evict to retry a sheet.
//
// # Backends
//
// Any source.Source works. The blobstore packages provide local (mmap), bbolt,
// S3, MinIO and HTTP backends plus caching, compression and rate limiting
// decorators; source.FromBlobs adapts them.
package exdcache
