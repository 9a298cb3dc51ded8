package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrPanic wraps a panic recovered from a computation.
var ErrPanic = errors.New("async: computation panicked")

// Future is a completion cell shared by any number of waiters.
type Future[V any] struct {
	done  chan struct{}
	once  sync.Once
	value V
	err   error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

// Go runs fn in a new goroutine and returns its Future.
//
// fn receives a context detached from ctx's cancellation (values are kept),
// so the computation runs to completion even if every waiter gives up.
func Go[V any](ctx context.Context, fn func(context.Context) (V, error)) *Future[V] {
	f := newFuture[V]()
	runCtx := context.WithoutCancel(ctx)
	go func() {
		v, err := call(runCtx, fn)
		f.complete(v, err)
	}()
	return f
}

// Resolved returns a Future that is already complete.
func Resolved[V any](v V, err error) *Future[V] {
	f := newFuture[V]()
	f.complete(v, err)
	return f
}

func call[V any](ctx context.Context, fn func(context.Context) (V, error)) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// complete publishes the result. Only the first call has an effect.
func (f *Future[V]) complete(v V, err error) bool {
	first := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		first = true
	})
	return first
}

// Wait blocks until the Future completes or ctx is done.
// A ctx error only ends this wait; the computation keeps running.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Done is closed when the Future completes.
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the Future has completed.
func (f *Future[V]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
