package hash

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// TrailerSize is the size of a checksum trailer in bytes.
const TrailerSize = 4

// ErrChecksum is returned when a trailer does not match its payload.
var ErrChecksum = errors.New("hash: checksum mismatch")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// AppendTrailer appends the little-endian CRC32C of data to dst.
func AppendTrailer(dst, data []byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, CRC32C(data))
}

// SplitTrailer verifies the trailer written by AppendTrailer and returns the
// payload without it.
func SplitTrailer(b []byte) ([]byte, error) {
	if len(b) < TrailerSize {
		return nil, ErrChecksum
	}
	n := len(b) - TrailerSize
	payload := b[:n]
	if binary.LittleEndian.Uint32(b[n:]) != CRC32C(payload) {
		return nil, ErrChecksum
	}
	return payload, nil
}
