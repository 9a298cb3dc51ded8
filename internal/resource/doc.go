// Package resource implements the Controller for global limits on reads.
//
// The Controller manages three resource types:
//
//   - Memory: track and limit bytes held by caches (non-blocking, fail-fast)
//   - Fetches: limit concurrent backend requests
//   - IO: rate-limit backend read throughput
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(1024*1024); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides what to drop
//	}
//	defer rc.ReleaseMemory(1024*1024)
//
// # Fetch Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentFetches: 8,
//	})
//
//	if err := rc.AcquireFetch(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseFetch()
//
// # IO Rate Limiting
//
// A token bucket caps read throughput. Requests larger than IOBurst must be
// split by the caller:
//
//	if err := rc.AcquireIO(ctx, 4096); err != nil {
//	    return err
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
