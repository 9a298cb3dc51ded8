package blobstore

import (
	"context"

	"github.com/hupe1980/exdcache/internal/resource"
)

// LimitedStore bounds concurrent reads and read throughput of the wrapped
// store using a resource.Controller.
type LimitedStore struct {
	inner BlobStore
	rc    *resource.Controller
}

// NewLimitedStore wraps inner. A nil controller disables limiting.
func NewLimitedStore(inner BlobStore, rc *resource.Controller) *LimitedStore {
	return &LimitedStore{inner: inner, rc: rc}
}

func (s *LimitedStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := s.rc.AcquireFetch(ctx); err != nil {
		return nil, err
	}
	b, err := s.inner.Open(ctx, name)
	s.rc.ReleaseFetch()
	if err != nil {
		return nil, err
	}
	return &limitedBlob{Blob: b, rc: s.rc}, nil
}

func (s *LimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.rc.AcquireFetch(ctx); err != nil {
		return nil, err
	}
	defer s.rc.ReleaseFetch()
	return s.inner.List(ctx, prefix)
}

type limitedBlob struct {
	Blob
	rc *resource.Controller
}

func (b *limitedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.rc.AcquireFetch(ctx); err != nil {
		return 0, err
	}
	defer b.rc.ReleaseFetch()

	// WaitN rejects requests above the burst size, so wait in chunks.
	burst := b.rc.IOBurst()
	for remaining := len(p); remaining > 0 && burst > 0; {
		n := min(remaining, burst)
		if err := b.rc.AcquireIO(ctx, n); err != nil {
			return 0, err
		}
		remaining -= n
	}
	return b.Blob.ReadAt(ctx, p, off)
}
