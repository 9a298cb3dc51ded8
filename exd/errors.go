package exd

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when a resource is malformed (bad magic, truncated
	// buffer, inconsistent sizes).
	ErrDecode = errors.New("exd: malformed data")

	// ErrBounds is returned when a field read extends past the page's addressable range.
	ErrBounds = errors.New("exd: read out of bounds")

	// ErrNotFound is returned when a row, sheet or language variant does not exist.
	ErrNotFound = errors.New("exd: not found")

	// ErrIndex is returned when a positional or subrow index is out of range.
	ErrIndex = errors.New("exd: index out of range")
)

// DecodeError describes why a resource could not be decoded.
//
// It matches ErrDecode with errors.Is. The underlying error (if any) can be
// accessed via errors.Unwrap.
type DecodeError struct {
	// What names the structure being decoded ("page", "header", "list", ...).
	What   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exd: decode %s: %s: %v", e.What, e.Reason, e.Err)
	}
	return fmt.Sprintf("exd: decode %s: %s", e.What, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(what, format string, args ...any) error {
	return &DecodeError{What: what, Reason: fmt.Sprintf(format, args...)}
}

// BoundsError describes a read of Width bytes at absolute offset Offset that
// does not fit in the addressable range [Start, End).
//
// It matches ErrBounds with errors.Is.
type BoundsError struct {
	Offset uint64
	Width  int
	Start  uint64
	End    uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("exd: read of %d bytes at offset %d outside page range [%d, %d)",
		e.Width, e.Offset, e.Start, e.End)
}

// Is reports whether target is ErrBounds.
func (e *BoundsError) Is(target error) bool { return target == ErrBounds }
