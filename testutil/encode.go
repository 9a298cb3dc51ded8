package testutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/exdcache/exd"
)

// Row is a synthetic row: one field block per subrow and the string table
// that follows them.
type Row struct {
	ID      uint32
	Subrows [][]byte
	Strings []byte
}

// NewRow returns a row with a single zeroed field block of rowSize bytes.
func NewRow(id uint32, rowSize uint16) *Row {
	return &Row{ID: id, Subrows: [][]byte{make([]byte, rowSize)}}
}

// AddSubrow appends a zeroed field block and makes it the target of the
// following setters.
func (r *Row) AddSubrow() *Row {
	r.Subrows = append(r.Subrows, make([]byte, len(r.Subrows[0])))
	return r
}

func (r *Row) last() []byte { return r.Subrows[len(r.Subrows)-1] }

func (r *Row) Uint8(off int, v uint8) *Row {
	r.last()[off] = v
	return r
}

func (r *Row) Uint16(off int, v uint16) *Row {
	binary.BigEndian.PutUint16(r.last()[off:], v)
	return r
}

func (r *Row) Uint32(off int, v uint32) *Row {
	binary.BigEndian.PutUint32(r.last()[off:], v)
	return r
}

func (r *Row) Uint64(off int, v uint64) *Row {
	binary.BigEndian.PutUint64(r.last()[off:], v)
	return r
}

func (r *Row) Float32(off int, v float32) *Row {
	return r.Uint32(off, math.Float32bits(v))
}

// Str appends s to the string table and stores its pointer at off.
func (r *Row) Str(off int, s string) *Row {
	binary.BigEndian.PutUint32(r.last()[off:], uint32(len(r.Strings)))
	r.Strings = append(r.Strings, s...)
	r.Strings = append(r.Strings, 0)
	return r
}

// EncodePage returns a raw page holding rows in order. When subrows is true
// every field block is prefixed with its subrow identifier.
func EncodePage(rows []*Row, subrows bool) []byte {
	be := binary.BigEndian
	indexSize := 8 * len(rows)
	buf := make([]byte, 32+indexSize)
	copy(buf, "EXDF")
	be.PutUint16(buf[4:], 2)
	be.PutUint32(buf[8:], uint32(indexSize))

	for i, r := range rows {
		off := len(buf)
		be.PutUint32(buf[32+8*i:], r.ID)
		be.PutUint32(buf[32+8*i+4:], uint32(off))

		var body []byte
		for s, fields := range r.Subrows {
			if subrows {
				body = be.AppendUint16(body, uint16(s))
			}
			body = append(body, fields...)
		}
		body = append(body, r.Strings...)

		buf = be.AppendUint32(buf, uint32(len(body)))
		buf = be.AppendUint16(buf, uint16(len(r.Subrows)))
		buf = append(buf, body...)
	}
	return buf
}

// EncodeHeader returns the raw form of h.
func EncodeHeader(h *exd.Header) []byte {
	be := binary.BigEndian
	buf := make([]byte, 32)
	copy(buf, "EXHF")
	be.PutUint16(buf[4:], 3)
	be.PutUint16(buf[6:], h.RowSize)
	be.PutUint16(buf[8:], uint16(len(h.Columns)))
	be.PutUint16(buf[10:], uint16(len(h.Pages)))
	be.PutUint16(buf[12:], uint16(len(h.Languages)))
	buf[17] = byte(h.Kind)
	be.PutUint32(buf[20:], h.RowCount)

	for _, c := range h.Columns {
		buf = be.AppendUint16(buf, uint16(c.Kind))
		buf = be.AppendUint16(buf, c.Offset)
	}
	for _, p := range h.Pages {
		buf = be.AppendUint32(buf, p.StartID)
		buf = be.AppendUint32(buf, p.RowCount)
	}
	for _, l := range h.Languages {
		buf = append(buf, byte(l), 0)
	}
	return buf
}

// EncodeList returns the text form of a listing with CRLF line endings.
func EncodeList(l *exd.List) []byte {
	var sb strings.Builder
	sb.WriteString("EXLT,2\r\n")
	for _, name := range l.Names() {
		tag, _ := l.Tag(name)
		fmt.Fprintf(&sb, "%s,%d\r\n", name, tag)
	}
	return []byte(sb.String())
}
