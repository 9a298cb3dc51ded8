package exd_test

import (
	"encoding/binary"
	"testing"

	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawPage(indexSize uint32, defs [][2]uint32, data []byte) []byte {
	buf := make([]byte, 32)
	copy(buf, "EXDF")
	binary.BigEndian.PutUint16(buf[4:], 2)
	binary.BigEndian.PutUint32(buf[8:], indexSize)
	for _, d := range defs {
		buf = binary.BigEndian.AppendUint32(buf, d[0])
		buf = binary.BigEndian.AppendUint32(buf, d[1])
	}
	return append(buf, data...)
}

func TestDecodePage_RoundTrip(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01}
	buf := rawPage(16, [][2]uint32{{100, 32}, {101, 48}}, data)

	p, err := exd.DecodePage(buf, 4)
	require.NoError(t, err)

	assert.Equal(t, []exd.RowDefinition{{ID: 100, Offset: 32}, {ID: 101, Offset: 48}}, p.Rows)
	assert.Equal(t, data, p.Data)
	assert.Equal(t, uint32(48), p.Offset)
	assert.Equal(t, uint16(4), p.RowSize)
	assert.Equal(t, uint64(53), p.End())
}

func TestDecodePage_Errors(t *testing.T) {
	valid := rawPage(8, [][2]uint32{{1, 40}}, nil)

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"truncated header", valid[:20]},
		{"bad magic", append([]byte("EXHF"), valid[4:]...)},
		{"index not multiple of 8", rawPage(12, nil, make([]byte, 12))},
		{"truncated index", rawPage(16, [][2]uint32{{1, 48}}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := exd.DecodePage(tt.buf, 4)
			assert.Nil(t, p)
			require.ErrorIs(t, err, exd.ErrDecode)

			var de *exd.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "page", de.What)
		})
	}
}

func TestDecodePage_IgnoresVersion(t *testing.T) {
	buf := rawPage(0, nil, nil)
	binary.BigEndian.PutUint16(buf[4:], 0xffff)

	p, err := exd.DecodePage(buf, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
}

func TestPage_RowHeader(t *testing.T) {
	row := testutil.NewRow(3, 4).AddSubrow()
	p, err := exd.DecodePage(testutil.EncodePage([]*testutil.Row{row}, true), 4)
	require.NoError(t, err)

	rh, err := p.RowHeader(p.Rows[0].Offset)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), rh.SubrowCount)
	assert.Equal(t, uint32(2*(2+4)), rh.DataSize)

	_, err = p.RowHeader(uint32(p.End()) - 2)
	assert.ErrorIs(t, err, exd.ErrBounds)
}
