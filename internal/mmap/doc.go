// Package mmap reads local archive files through read-only memory mappings.
//
// LocalStore keeps a Mapping open for ranged reads and uses ReadFile for whole
// files, which maps, copies out and unmaps in one call:
//
//	buf, err := mmap.ReadFile("exd/item_0_en.exd")
//
// On Unix the mapping is advised with MADV_WILLNEED when opened. On Windows
// the file is mapped with MapViewOfFile and no hint is given.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not use the slice returned by Bytes after Close.
package mmap
