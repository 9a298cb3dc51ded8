// Package hash provides CRC32-Castagnoli checksums for blocks persisted by the
// disk cache.
//
// A block is stored as its payload followed by a 4-byte little-endian CRC32C
// trailer:
//
//	buf := hash.AppendTrailer(append([]byte(nil), data...), data)
//	payload, err := hash.SplitTrailer(buf)
//
// Go's crc32 package uses hardware instructions for the Castagnoli
// polynomial when available.
package hash
