// Package watch invalidates cached sheets when files of a local archive
// change on disk.
//
// A rewritten listing refreshes the provider's listing. A rewritten header or
// page evicts the sheet it belongs to, so the next request reloads it.
//
//	p, _ := exdcache.Open(ctx, source.FromBlobs(store))
//	if err := watch.Local(ctx, root, p, slog.Default()); err != nil { ... }
package watch
