package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var boltFilesBucket = []byte("files")

// BoltOptions configures a BoltStore.
type BoltOptions struct {
	// ReadOnly opens the database with a shared lock. Put fails on a read-only store.
	ReadOnly bool
	// Timeout bounds the wait for the file lock. Defaults to 10s.
	Timeout time.Duration
}

// BoltStore implements BlobStore over a single bbolt database holding every
// archive file as a key in one bucket. It is a convenient packed form of an
// extracted archive.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (or creates, unless read-only) the database at path.
func OpenBoltStore(path string, opts BoltOptions) (*BoltStore, error) {
	bopt := *bbolt.DefaultOptions
	bopt.ReadOnly = opts.ReadOnly
	bopt.Timeout = opts.Timeout
	if bopt.Timeout <= 0 {
		bopt.Timeout = 10 * time.Second
	}

	db, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open bolt %s: %w", path, err)
	}

	if !opts.ReadOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(boltFilesBucket)
			return err
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &BoltStore{db: db}, nil
}

// Open returns a copy of the stored file; bbolt values are only valid inside
// their transaction.
func (s *BoltStore) Open(ctx context.Context, name string) (Blob, error) {
	data, err := s.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return &bytesBlob{data: data}, nil
}

// Fetch implements Fetcher.
func (s *BoltStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltFilesBucket)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltFilesBucket)
		if b == nil {
			return nil
		}
		p := []byte(prefix)
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Put stores a file.
func (s *BoltStore) Put(_ context.Context, name string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltFilesBucket).Put([]byte(name), data)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
