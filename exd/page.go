package exd

import (
	"encoding/binary"
)

const (
	pageMagic      = "EXDF"
	pageHeaderSize = 32

	// RowDefinitionSize is the size of one entry of a page's row index.
	RowDefinitionSize = 8
	// RowHeaderSize is the size of the header preceding every row's data.
	RowHeaderSize = 6
	// SubrowHeaderSize is the size of the identifier preceding every subrow.
	SubrowHeaderSize = 2
)

// RowDefinition is one entry of a page's row index.
type RowDefinition struct {
	// ID is the row identifier (primary key).
	ID uint32
	// Offset is the absolute byte offset of the row header within the page file.
	Offset uint32
}

// RowHeader precedes every row in a page's data region.
type RowHeader struct {
	// DataSize is the declared size of the row's data (informational).
	DataSize uint32
	// SubrowCount is the number of subrows; always 1 for default sheets.
	SubrowCount uint16
}

// Page is one decoded page of a sheet variant.
//
// Data holds everything after the row index. Offset is the absolute position
// of Data[0] within the page file, so row offsets (which are absolute) map to
// Data[off-Offset].
type Page struct {
	RowSize uint16
	Offset  uint32
	Rows    []RowDefinition
	Data    []byte
}

// DecodePage decodes a raw .exd page.
//
// rowSize is the fixed per-row field width declared by the sheet header.
// The returned page references buf; buf must not be modified afterwards.
func DecodePage(buf []byte, rowSize uint16) (*Page, error) {
	if len(buf) < pageHeaderSize {
		return nil, decodeErr("page", "truncated header: %d bytes", len(buf))
	}
	if string(buf[:4]) != pageMagic {
		return nil, decodeErr("page", "bad magic %q", buf[:4])
	}
	// buf[4:6] is the format version, buf[6:8] padding.
	indexSize := binary.BigEndian.Uint32(buf[8:12])
	if indexSize%RowDefinitionSize != 0 {
		return nil, decodeErr("page", "index size %d is not a multiple of %d", indexSize, RowDefinitionSize)
	}

	dataStart := uint64(pageHeaderSize) + uint64(indexSize)
	if dataStart > uint64(len(buf)) {
		return nil, decodeErr("page", "truncated row index: need %d bytes, have %d", dataStart, len(buf))
	}

	rows := make([]RowDefinition, indexSize/RowDefinitionSize)
	for i := range rows {
		p := pageHeaderSize + i*RowDefinitionSize
		rows[i] = RowDefinition{
			ID:     binary.BigEndian.Uint32(buf[p:]),
			Offset: binary.BigEndian.Uint32(buf[p+4:]),
		}
	}

	return &Page{
		RowSize: rowSize,
		Offset:  uint32(dataStart),
		Rows:    rows,
		Data:    buf[dataStart:],
	}, nil
}

// End returns the absolute offset one past the last addressable byte.
func (p *Page) End() uint64 {
	return uint64(p.Offset) + uint64(len(p.Data))
}

// Bytes returns n bytes at absolute offset off.
func (p *Page) Bytes(off uint64, n int) ([]byte, error) {
	if off < uint64(p.Offset) || n < 0 || off+uint64(n) > p.End() {
		return nil, &BoundsError{Offset: off, Width: n, Start: uint64(p.Offset), End: p.End()}
	}
	rel := off - uint64(p.Offset)
	return p.Data[rel : rel+uint64(n)], nil
}

// RowHeader reads the row header at absolute offset off.
func (p *Page) RowHeader(off uint32) (RowHeader, error) {
	b, err := p.Bytes(uint64(off), RowHeaderSize)
	if err != nil {
		return RowHeader{}, err
	}
	return RowHeader{
		DataSize:    binary.BigEndian.Uint32(b),
		SubrowCount: binary.BigEndian.Uint16(b[4:]),
	}, nil
}

// Row returns an accessor for the field block starting at absolute offset off.
// Strings are resolved relative to the end of the field block.
func (p *Page) Row(off uint32) Row {
	return NewRow(p, off, off+uint32(p.RowSize))
}
