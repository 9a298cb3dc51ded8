package exdcache

import (
	"errors"

	"github.com/hupe1980/exdcache/exd"
)

var (
	// ErrClosed is returned by operations on a closed Provider.
	ErrClosed = errors.New("exdcache: provider closed")

	// ErrNotFound is returned when a sheet, language variant or row does not exist.
	ErrNotFound = exd.ErrNotFound

	// ErrDecode is returned when an archive file is malformed.
	ErrDecode = exd.ErrDecode

	// ErrBounds is returned by field reads outside the page.
	ErrBounds = exd.ErrBounds

	// ErrIndex is returned for out of range positions and subrow indexes.
	ErrIndex = exd.ErrIndex
)
