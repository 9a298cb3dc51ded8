package async

import (
	"context"
	"errors"
	"sync"
)

// ErrDropped is observed by waiters of an initializer that was dropped before
// its task finished.
var ErrDropped = errors.New("async: initializer dropped")

// Registry tracks live background initializers by id.
type Registry[T any] struct {
	mu   sync.Mutex
	next uint64
	live map[uint64]*Initializer[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{live: make(map[uint64]*Initializer[T])}
}

// Initializer is a value produced once in the background.
type Initializer[T any] struct {
	id     uint64
	reg    *Registry[T]
	fut    *Future[T]
	cancel context.CancelFunc
}

// Start registers a new initializer and runs fn in the background. fn's
// context is detached from ctx and is canceled only by Drop.
func (r *Registry[T]) Start(ctx context.Context, fn func(context.Context) (T, error)) *Initializer[T] {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r.mu.Lock()
	r.next++
	init := &Initializer[T]{
		id:     r.next,
		reg:    r,
		fut:    newFuture[T](),
		cancel: cancel,
	}
	r.live[init.id] = init
	r.mu.Unlock()

	id := init.id
	go func() {
		defer cancel()
		v, err := call(runCtx, fn)

		r.mu.Lock()
		target, ok := r.live[id]
		r.mu.Unlock()
		if !ok {
			return
		}
		target.fut.complete(v, err)
	}()

	return init
}

// Len returns the number of initializers that have not been dropped.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// ID returns the initializer's registry id.
func (i *Initializer[T]) ID() uint64 {
	return i.id
}

// Wait blocks until the value is available, the initializer is dropped, or
// ctx is done.
func (i *Initializer[T]) Wait(ctx context.Context) (T, error) {
	return i.fut.Wait(ctx)
}

// Ready reports whether a result (or ErrDropped) is available.
func (i *Initializer[T]) Ready() bool {
	return i.fut.Ready()
}

// Done is closed once a result (or ErrDropped) is available.
func (i *Initializer[T]) Done() <-chan struct{} {
	return i.fut.Done()
}

// Drop unregisters the initializer and cancels its task. A result produced
// afterwards is discarded. Drop is idempotent.
func (i *Initializer[T]) Drop() {
	i.reg.mu.Lock()
	delete(i.reg.live, i.id)
	i.reg.mu.Unlock()

	i.cancel()
	var zero T
	i.fut.complete(zero, ErrDropped)
}
