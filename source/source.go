package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/exdcache/blobstore"
	"github.com/hupe1980/exdcache/exd"
)

// Source fetches raw archive resources.
type Source interface {
	// List returns the decoded sheet listing.
	List(ctx context.Context) (*exd.List, error)
	// FetchHeader returns the raw header bytes of a sheet.
	FetchHeader(ctx context.Context, name string) ([]byte, error)
	// FetchPage returns the raw bytes of the page starting at startID of one
	// language variant of a sheet.
	FetchPage(ctx context.Context, name string, startID uint32, lang exd.Language) ([]byte, error)
}

// BlobSource reads an archive laid out with the exd path scheme from a blob store.
type BlobSource struct {
	store blobstore.BlobStore
}

// FromBlobs returns a Source backed by store.
func FromBlobs(store blobstore.BlobStore) *BlobSource {
	return &BlobSource{store: store}
}

// Store returns the underlying blob store.
func (s *BlobSource) Store() blobstore.BlobStore { return s.store }

func (s *BlobSource) List(ctx context.Context) (*exd.List, error) {
	buf, err := s.read(ctx, exd.ListPath)
	if err != nil {
		return nil, err
	}
	return exd.DecodeList(buf)
}

func (s *BlobSource) FetchHeader(ctx context.Context, name string) ([]byte, error) {
	return s.read(ctx, exd.HeaderPath(name))
}

func (s *BlobSource) FetchPage(ctx context.Context, name string, startID uint32, lang exd.Language) ([]byte, error) {
	return s.read(ctx, exd.PagePath(name, startID, lang))
}

func (s *BlobSource) read(ctx context.Context, path string) ([]byte, error) {
	buf, err := blobstore.ReadAll(ctx, s.store, path)
	if err != nil {
		return nil, translateError(path, err)
	}
	return buf, nil
}

func translateError(path string, err error) error {
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", exd.ErrNotFound, path, err)
	}
	return fmt.Errorf("source: read %s: %w", path, err)
}

// WithTimeout bounds every call to src by d. A non-positive d returns src unchanged.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return &timeoutSource{inner: src, timeout: d}
}

type timeoutSource struct {
	inner   Source
	timeout time.Duration
}

func (s *timeoutSource) List(ctx context.Context) (*exd.List, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.List(ctx)
}

func (s *timeoutSource) FetchHeader(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.FetchHeader(ctx, name)
}

func (s *timeoutSource) FetchPage(ctx context.Context, name string, startID uint32, lang exd.Language) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.FetchPage(ctx, name, startID, lang)
}
