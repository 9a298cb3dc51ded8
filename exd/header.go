package exd

import (
	"encoding/binary"
	"slices"
)

const (
	headerMagic     = "EXHF"
	headerFixedSize = 32
	columnDefSize   = 4
	pageRangeSize   = 8
	languageDefSize = 2
)

// SheetKind distinguishes single-row sheets from sheets with subrows.
type SheetKind uint8

const (
	// SheetUnknown is any kind value the decoder does not recognise.
	SheetUnknown SheetKind = 0
	// SheetDefault sheets hold one field block per row.
	SheetDefault SheetKind = 1
	// SheetSubrows sheets hold a counted run of subrows per row.
	SheetSubrows SheetKind = 2
)

func (k SheetKind) String() string {
	switch k {
	case SheetDefault:
		return "default"
	case SheetSubrows:
		return "subrows"
	}
	return "unknown"
}

// PageRange is one page interval of a sheet: rows starting at StartID.
type PageRange struct {
	StartID  uint32
	RowCount uint32
}

// Header is a decoded sheet header (.exh).
type Header struct {
	RowSize   uint16
	Kind      SheetKind
	RowCount  uint32
	Columns   []Column
	Pages     []PageRange
	Languages []Language
}

// DecodeHeader decodes a raw .exh header.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < headerFixedSize {
		return nil, decodeErr("header", "truncated header: %d bytes", len(buf))
	}
	if string(buf[:4]) != headerMagic {
		return nil, decodeErr("header", "bad magic %q", buf[:4])
	}

	be := binary.BigEndian
	h := &Header{
		RowSize:  be.Uint16(buf[6:]),
		Kind:     SheetKind(buf[17]),
		RowCount: be.Uint32(buf[20:]),
	}
	columnCount := int(be.Uint16(buf[8:]))
	pageCount := int(be.Uint16(buf[10:]))
	languageCount := int(be.Uint16(buf[12:]))

	need := headerFixedSize + columnCount*columnDefSize + pageCount*pageRangeSize + languageCount*languageDefSize
	if len(buf) < need {
		return nil, decodeErr("header", "truncated definitions: need %d bytes, have %d", need, len(buf))
	}

	p := headerFixedSize
	h.Columns = make([]Column, columnCount)
	for i := range h.Columns {
		h.Columns[i] = Column{Kind: ColumnKind(be.Uint16(buf[p:])), Offset: be.Uint16(buf[p+2:])}
		p += columnDefSize
	}
	h.Pages = make([]PageRange, pageCount)
	for i := range h.Pages {
		h.Pages[i] = PageRange{StartID: be.Uint32(buf[p:]), RowCount: be.Uint32(buf[p+4:])}
		p += pageRangeSize
	}
	h.Languages = make([]Language, languageCount)
	for i := range h.Languages {
		h.Languages[i] = Language(buf[p])
		p += languageDefSize
	}

	for _, c := range h.Columns {
		if end := int(c.Offset) + c.Kind.Size(); end > int(h.RowSize) {
			return nil, decodeErr("header", "column %s at offset %d exceeds row size %d", c.Kind, c.Offset, h.RowSize)
		}
	}
	return h, nil
}

// HasSubrows reports whether rows may carry more than one subrow.
func (h *Header) HasSubrows() bool { return h.Kind == SheetSubrows }

// HasLanguage reports whether the sheet declares the given variant.
func (h *Header) HasLanguage(l Language) bool { return slices.Contains(h.Languages, l) }

// DeclaredRows returns the sum of the row counts of all page ranges.
func (h *Header) DeclaredRows() uint32 {
	var n uint32
	for _, p := range h.Pages {
		n += p.RowCount
	}
	return n
}
