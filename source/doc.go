// Package source defines the transport capability the sheet loader and the
// cached provider consume, and adapts blob stores to it.
//
// A Source is asynchronous and fallible from the caller's point of view:
// every operation takes a context and may return any transport error. Errors
// are passed through wrapped, never swallowed. A resource that does not exist
// is reported with an error matching exd.ErrNotFound.
package source
