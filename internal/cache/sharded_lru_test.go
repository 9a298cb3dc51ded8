package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestShardedLRUBlockCache_BasicOperations(t *testing.T) {
	cache := NewShardedLRUBlockCache(1024*1024, nil)

	ctx := context.Background()
	key := CacheKey{Kind: CacheKindBlob, Path: "exd/item.exh"}
	data := []byte("test data")

	cache.Set(ctx, key, data)
	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	_, ok = cache.Get(ctx, CacheKey{Kind: CacheKindBlob, Path: "exd/other.exh"})
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestShardedLRUBlockCache_ShardDistribution(t *testing.T) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil)

	ctx := context.Background()
	data := make([]byte, 1024)

	for i := range 1000 {
		key := CacheKey{
			Kind:   CacheKindBlob,
			Path:   fmt.Sprintf("exd/sheet%d_0.exd", i%100),
			Offset: uint64(i * 4096),
		}
		cache.Set(ctx, key, data)
	}

	nonEmptyShards := 0
	for i := range numShards {
		if cache.shards[i].Size() > 0 {
			nonEmptyShards++
		}
	}
	if nonEmptyShards < 30 {
		t.Errorf("poor shard distribution: only %d shards have items", nonEmptyShards)
	}
	if cache.Len() != 1000 {
		t.Errorf("got %d entries, want 1000", cache.Len())
	}
}

func TestShardedLRUBlockCache_Concurrent(t *testing.T) {
	cache := NewShardedLRUBlockCache(64*1024*1024, nil)

	ctx := context.Background()
	data := make([]byte, 1024)

	const numGoroutines = 50
	const numOpsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for g := range numGoroutines {
		go func(goroutineID int) {
			defer wg.Done()
			path := fmt.Sprintf("exd/s%d.exd", goroutineID)
			for i := range numOpsPerGoroutine {
				key := CacheKey{Kind: CacheKindBlob, Path: path, Offset: uint64(i)}
				cache.Set(ctx, key, data)
				cache.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()

	hits, misses := cache.Stats()
	if hits+misses != numGoroutines*numOpsPerGoroutine {
		t.Errorf("expected %d lookups, got %d", numGoroutines*numOpsPerGoroutine, hits+misses)
	}
}

func TestShardedLRUBlockCache_Invalidate(t *testing.T) {
	cache := NewShardedLRUBlockCache(1024*1024, nil)
	ctx := context.Background()

	for i := range 100 {
		cache.Set(ctx, CacheKey{Kind: CacheKindBlob, Path: "a", Offset: uint64(i)}, []byte("x"))
		cache.Set(ctx, CacheKey{Kind: CacheKindBlob, Path: "b", Offset: uint64(i)}, []byte("y"))
	}

	cache.Invalidate(func(k CacheKey) bool { return k.Path == "a" })

	if cache.Len() != 100 {
		t.Errorf("got %d entries after invalidate, want 100", cache.Len())
	}
	if cache.Size() != 100 {
		t.Errorf("got size %d, want 100", cache.Size())
	}
	if err := cache.Close(); err != nil {
		t.Fatal(err)
	}
}
