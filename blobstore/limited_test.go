package blobstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/exdcache/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedStore struct {
	*MemoryStore
	active  atomic.Int64
	maxSeen atomic.Int64
}

func (s *gatedStore) Open(ctx context.Context, name string) (Blob, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.MemoryStore.Open(ctx, name)
}

func TestLimitedStore_BoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "a", []byte("abc")))

	rc := resource.NewController(resource.Config{MaxConcurrentFetches: 2})
	s := NewLimitedStore(inner, rc)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := ReadAll(ctx, s, "a")
			assert.NoError(t, err)
			assert.Equal(t, "abc", string(data))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.maxSeen.Load(), int64(2))
	assert.Equal(t, int64(0), rc.InFlightFetches())
}

func TestLimitedStore_IOLimitChunks(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "big", make([]byte, 250)))

	// Burst is 200 bytes, so a 250 byte read has to wait in two chunks.
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 200})
	s := NewLimitedStore(mem, rc)

	data, err := ReadAll(ctx, s, "big")
	require.NoError(t, err)
	assert.Len(t, data, 250)

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"big"}, names)
}

func TestLimitedStore_ContextCanceled(t *testing.T) {
	mem := NewMemoryStore()
	rc := resource.NewController(resource.Config{MaxConcurrentFetches: 1})
	require.True(t, rc.TryAcquireFetch())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLimitedStore(mem, rc).Open(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
