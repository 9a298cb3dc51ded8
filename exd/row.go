package exd

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed is the set of fixed-width values a Row can decode.
type Fixed interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Row is a read-only view of one row (or subrow) inside a page.
//
// Field offsets are relative to the start of the row's field block. Row is a
// small value type and is safe to copy.
type Row struct {
	page   *Page
	offset uint32
	origin uint32
}

// NewRow returns a row anchored at absolute offset off with string pointers
// resolved against absolute offset stringOrigin.
func NewRow(p *Page, off, stringOrigin uint32) Row {
	return Row{page: p, offset: off, origin: stringOrigin}
}

// Offset returns the absolute offset of the row's field block.
func (r Row) Offset() uint32 { return r.offset }

// StringOrigin returns the absolute offset string pointers are relative to.
func (r Row) StringOrigin() uint32 { return r.origin }

// RowSize returns the fixed field block width of the owning page.
func (r Row) RowSize() uint16 {
	if r.page == nil {
		return 0
	}
	return r.page.RowSize
}

// Bytes returns n raw bytes at fieldOffset.
func (r Row) Bytes(fieldOffset uint32, n int) ([]byte, error) {
	if r.page == nil {
		return nil, &BoundsError{Offset: uint64(r.offset) + uint64(fieldOffset), Width: n}
	}
	return r.page.Bytes(uint64(r.offset)+uint64(fieldOffset), n)
}

// ReadFixed reads a big-endian value of type T at fieldOffset.
func ReadFixed[T Fixed](r Row, fieldOffset uint32) (T, error) {
	var v T
	b, err := r.Bytes(fieldOffset, binary.Size(v))
	if err != nil {
		return v, err
	}
	if _, err := binary.Decode(b, binary.BigEndian, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Int8 reads a signed byte at off.
func (r Row) Int8(off uint32) (int8, error) { return ReadFixed[int8](r, off) }

// Uint8 reads an unsigned byte at off.
func (r Row) Uint8(off uint32) (uint8, error) { return ReadFixed[uint8](r, off) }

// Int16 reads a big-endian int16 at off.
func (r Row) Int16(off uint32) (int16, error) { return ReadFixed[int16](r, off) }

// Uint16 reads a big-endian uint16 at off.
func (r Row) Uint16(off uint32) (uint16, error) { return ReadFixed[uint16](r, off) }

// Int32 reads a big-endian int32 at off.
func (r Row) Int32(off uint32) (int32, error) { return ReadFixed[int32](r, off) }

// Uint32 reads a big-endian uint32 at off.
func (r Row) Uint32(off uint32) (uint32, error) { return ReadFixed[uint32](r, off) }

// Int64 reads a big-endian int64 at off.
func (r Row) Int64(off uint32) (int64, error) { return ReadFixed[int64](r, off) }

// Uint64 reads a big-endian uint64 at off.
func (r Row) Uint64(off uint32) (uint64, error) { return ReadFixed[uint64](r, off) }

// Float32 reads a big-endian IEEE 754 float32 at off.
func (r Row) Float32(off uint32) (float32, error) { return ReadFixed[float32](r, off) }

// Float64 reads a big-endian IEEE 754 float64 at off. No column kind maps to
// it; it serves callers that know a field's layout.
func (r Row) Float64(off uint32) (float64, error) { return ReadFixed[float64](r, off) }

// Bool reads a single byte; any non-zero value is true.
func (r Row) Bool(off uint32) (bool, error) {
	b, err := r.Bytes(off, 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// PackedBool tests bit (0-7) of the byte at off.
func (r Row) PackedBool(off uint32, bit uint8) (bool, error) {
	if bit > 7 {
		return false, fmt.Errorf("%w: packed bool bit %d", ErrIndex, bit)
	}
	b, err := r.Bytes(off, 1)
	if err != nil {
		return false, err
	}
	return b[0]&(1<<bit) != 0, nil
}

// String reads the 4-byte string pointer at off and returns the NUL-terminated
// bytes it points to (without the terminator). The returned slice aliases the
// page buffer and must not be modified.
func (r Row) String(off uint32) ([]byte, error) {
	ptr, err := r.Uint32(off)
	if err != nil {
		return nil, err
	}
	if r.page == nil {
		return nil, &BoundsError{Offset: uint64(r.origin) + uint64(ptr)}
	}
	start := uint64(r.origin) + uint64(ptr)
	if start < uint64(r.page.Offset) || start >= r.page.End() {
		return nil, &BoundsError{Offset: start, Width: 1, Start: uint64(r.page.Offset), End: r.page.End()}
	}
	tail := r.page.Data[start-uint64(r.page.Offset):]
	n := bytes.IndexByte(tail, 0)
	if n < 0 {
		return nil, &BoundsError{Offset: start, Width: len(tail) + 1, Start: uint64(r.page.Offset), End: r.page.End()}
	}
	return tail[:n], nil
}

// Value reads the cell described by col and returns it as a Go value:
// string, bool, int8..uint64 or float32.
func (r Row) Value(col Column) (any, error) {
	off := uint32(col.Offset)
	switch col.Kind {
	case KindString:
		s, err := r.String(off)
		if err != nil {
			return nil, err
		}
		return string(s), nil
	case KindBool:
		return r.Bool(off)
	case KindInt8:
		return r.Int8(off)
	case KindUint8:
		return r.Uint8(off)
	case KindInt16:
		return r.Int16(off)
	case KindUint16:
		return r.Uint16(off)
	case KindInt32:
		return r.Int32(off)
	case KindUint32:
		return r.Uint32(off)
	case KindFloat32:
		return r.Float32(off)
	case KindInt64:
		return r.Int64(off)
	case KindUint64:
		return r.Uint64(off)
	}
	if bit, ok := col.Kind.PackedBit(); ok {
		return r.PackedBool(off, bit)
	}
	return nil, fmt.Errorf("%w: unsupported column kind %s", ErrDecode, col.Kind)
}
