// Package testutil provides testing utilities for exdcache.
//
// This package is intended for use in tests and benchmarks only.
// It builds synthetic archives (pages, headers and listings in their binary
// or text form) and provides instrumented sources.
//
// # Building a Sheet
//
//	s := testutil.Sheet{
//		Name:    "Item",
//		RowSize: 8,
//		Columns: []exd.Column{{Kind: exd.KindUint32, Offset: 0}, {Kind: exd.KindString, Offset: 4}},
//		Pages:   [][]*testutil.Row{{testutil.NewRow(1, 8).Uint32(0, 7).Str(4, "potion")}},
//	}
//	store := blobstore.NewMemoryStore()
//	testutil.Populate(ctx, store, s)
package testutil
