package exd

import "fmt"

// ColumnKind is the primitive type of a column as declared in a sheet header.
type ColumnKind uint16

const (
	KindString  ColumnKind = 0x0
	KindBool    ColumnKind = 0x1
	KindInt8    ColumnKind = 0x2
	KindUint8   ColumnKind = 0x3
	KindInt16   ColumnKind = 0x4
	KindUint16  ColumnKind = 0x5
	KindInt32   ColumnKind = 0x6
	KindUint32  ColumnKind = 0x7
	KindFloat32 ColumnKind = 0x9
	KindInt64   ColumnKind = 0xA
	KindUint64  ColumnKind = 0xB

	// Eight boolean columns may share one byte; the variant number is the bit.
	KindPackedBool0 ColumnKind = 0x19
	KindPackedBool1 ColumnKind = 0x1A
	KindPackedBool2 ColumnKind = 0x1B
	KindPackedBool3 ColumnKind = 0x1C
	KindPackedBool4 ColumnKind = 0x1D
	KindPackedBool5 ColumnKind = 0x1E
	KindPackedBool6 ColumnKind = 0x1F
	KindPackedBool7 ColumnKind = 0x20
)

// PackedBit returns the bit index of a packed bool kind.
func (k ColumnKind) PackedBit() (uint8, bool) {
	if k < KindPackedBool0 || k > KindPackedBool7 {
		return 0, false
	}
	return uint8(k - KindPackedBool0), true
}

// Size returns the number of bytes the column occupies in the field block.
// String columns store a 4-byte pointer.
func (k ColumnKind) Size() int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindString, KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64:
		return 8
	}
	if _, ok := k.PackedBit(); ok {
		return 1
	}
	return 0
}

func (k ColumnKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat32:
		return "float32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	}
	if bit, ok := k.PackedBit(); ok {
		return fmt.Sprintf("packedbool%d", bit)
	}
	return fmt.Sprintf("kind(0x%x)", uint16(k))
}

// Column is one column definition of a sheet header.
type Column struct {
	Kind   ColumnKind
	Offset uint16
}
