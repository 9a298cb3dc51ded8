package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_SharedResult(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	f := Go(context.Background(), func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("row"), nil
	})

	const waiters = 8
	results := make([][]byte, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	assert.False(t, f.Ready())
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []byte("row"), r)
	}
	assert.True(t, f.Ready())
}

func TestFuture_ErrorIsShared(t *testing.T) {
	boom := errors.New("transport down")
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	})

	_, err1 := f.Wait(context.Background())
	_, err2 := f.Wait(context.Background())
	assert.ErrorIs(t, err1, boom)
	assert.Same(t, err1, err2)
}

func TestFuture_AbandonedWaitDoesNotCancel(t *testing.T) {
	release := make(chan struct{})
	var sawCancel atomic.Bool
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, sawCancel.Load())
}

func TestFuture_CallerContextCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := Go(ctx, func(ctx context.Context) (string, error) {
		return "ok", ctx.Err()
	})
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFuture_Panic(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		panic("bad page")
	})
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "bad page")
}

func TestResolved(t *testing.T) {
	f := Resolved(7, nil)
	assert.True(t, f.Ready())
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("Done should be closed")
	}
}
