package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrow(t *testing.T) {
	u16, err := Narrow[uint16](65535)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), u16)

	_, err = Narrow[uint16](65536)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Narrow[uint32](-1)
	assert.ErrorIs(t, err, ErrOverflow)

	u32, err := Narrow[uint32](uint64(math.MaxUint32))
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), u32)

	_, err = Narrow[uint32](uint64(math.MaxUint32) + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	// Same width, different sign.
	_, err = Narrow[int32](uint32(math.MaxUint32))
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = Narrow[uint64](int64(-5))
	assert.ErrorIs(t, err, ErrOverflow)

	i, err := Narrow[int](uint32(42))
	require.NoError(t, err)
	assert.Equal(t, 42, i)
}
