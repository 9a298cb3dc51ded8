//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func osWillNeed(data []byte) error {
	err := unix.Madvise(data, unix.MADV_WILLNEED)
	if errors.Is(err, unix.EINVAL) {
		// Unaligned or unsupported; the hint is optional.
		return nil
	}
	return err
}
