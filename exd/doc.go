// Package exd decodes the binary sheet formats of an excel archive.
//
// An archive is made of three kinds of resources:
//
//   - root.exl: a text listing of every sheet name with a signed category tag
//   - <name>.exh: the sheet header (columns, page ranges, languages, kind)
//   - <name>_<start>[_<lang>].exd: one page of row data for one language
//
// All binary structures are big-endian. Decoded values are immutable and may be
// shared between goroutines without synchronization.
//
// # Reading rows
//
// Row is the typed, bounds-checked accessor over a decoded page. Every read is
// checked against the page's addressable range and fails with ErrBounds instead
// of panicking:
//
//	v, err := exd.ReadFixed[uint32](row, col.Offset)
//	s, err := row.String(nameOffset)
//	b, err := row.PackedBool(flagsOffset, 3)
//
// Strings are returned as raw bytes; rich-text decoding is left to the caller.
package exd
