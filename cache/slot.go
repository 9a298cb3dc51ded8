package cache

import (
	"context"
	"sync"

	"github.com/hupe1980/exdcache/async"
)

// Slot holds at most one (key, value) pair.
//
// A request for the held key returns the held value. Any other key drops the
// held value and computes the new one. Errors are returned to every caller
// sharing the computation and leave the slot empty.
type Slot[K comparable, V any] struct {
	mu        sync.Mutex
	key       K
	fut       *async.Future[V]
	onReplace func(K, *async.Future[V])
}

// SlotOption configures a Slot.
type SlotOption[K comparable, V any] func(*Slot[K, V])

// WithOnReplace registers a callback invoked with the key and computation
// being dropped because a different key was requested. The callback runs
// after the slot already holds the new key.
func WithOnReplace[K comparable, V any](fn func(K, *async.Future[V])) SlotOption[K, V] {
	return func(s *Slot[K, V]) {
		s.onReplace = fn
	}
}

// NewSlot returns an empty slot.
func NewSlot[K comparable, V any](opts ...SlotOption[K, V]) *Slot[K, V] {
	s := &Slot[K, V]{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrSet returns the value for key, computing it if the slot holds a
// different key or nothing. Concurrent callers for the same key share one
// computation.
func (s *Slot[K, V]) GetOrSet(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	s.mu.Lock()
	fut := s.fut
	if fut == nil || s.key != key {
		oldKey, oldFut := s.key, fut
		fut = async.Go(ctx, compute)
		s.key, s.fut = key, fut
		s.mu.Unlock()

		if oldFut != nil && s.onReplace != nil {
			s.onReplace(oldKey, oldFut)
		}
		go s.clearOnError(key, fut)
	} else {
		s.mu.Unlock()
	}

	return fut.Wait(ctx)
}

func (s *Slot[K, V]) clearOnError(key K, fut *async.Future[V]) {
	<-fut.Done()
	if _, err := fut.Wait(context.Background()); err == nil {
		return
	}
	s.mu.Lock()
	if s.fut == fut && s.key == key {
		var zero K
		s.key, s.fut = zero, nil
	}
	s.mu.Unlock()
}

// Key returns the held key, if any.
func (s *Slot[K, V]) Key() (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.fut != nil
}

// Peek returns the held key and value without computing anything. ok is
// false while the slot is empty, still computing or holding a failure.
func (s *Slot[K, V]) Peek() (key K, v V, ok bool) {
	s.mu.Lock()
	key, fut := s.key, s.fut
	s.mu.Unlock()

	if fut == nil || !fut.Ready() {
		return key, v, false
	}
	v, err := fut.Wait(context.Background())
	if err != nil {
		var zero V
		return key, zero, false
	}
	return key, v, true
}

// Clear empties the slot.
func (s *Slot[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero K
	s.key, s.fut = zero, nil
}
