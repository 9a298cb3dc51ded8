package exdcache

import (
	"context"
	"sync"

	"github.com/hupe1980/exdcache/async"
	"github.com/hupe1980/exdcache/cache"
	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/internal/resource"
	"github.com/hupe1980/exdcache/sheet"
)

type loadFunc func(context.Context) (*sheet.Table, error)

// variantCache holds the loaded variants of one sheet.
type variantCache interface {
	get(ctx context.Context, lang exd.Language, load loadFunc) (*sheet.Table, error)
	// holds reports whether t is currently cached as the lang variant.
	holds(lang exd.Language, t *sheet.Table) bool
	clear()
}

// entry is the cached state of one sheet: its header and loaded variants.
//
// Charges are keyed by table so that a variant replaced while its load was
// still in flight is never accounted.
type entry struct {
	header   *exd.Header
	variants variantCache
	rc       *resource.Controller

	mu      sync.Mutex
	charges map[*sheet.Table]int64
	dropped bool
}

func newEntry(h *exd.Header, variantCacheSize int, rc *resource.Controller) *entry {
	e := &entry{
		header:  h,
		rc:      rc,
		charges: make(map[*sheet.Table]int64),
	}
	if variantCacheSize > 1 {
		e.variants = &lruVariants{
			sf: cache.NewSingleFlight(variantCacheSize, cache.WithOnEvict(func(_ exd.Language, fut *async.Future[*sheet.Table]) {
				e.release(fut)
			})),
		}
	} else {
		e.variants = &slotVariants{
			slot: cache.NewSlot(cache.WithOnReplace(func(_ exd.Language, fut *async.Future[*sheet.Table]) {
				e.release(fut)
			})),
		}
	}
	return e
}

// chargeable reports whether t still needs to be accounted.
func (e *entry) chargeable(lang exd.Language, t *sheet.Table) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chargeableLocked(lang, t)
}

func (e *entry) chargeableLocked(lang exd.Language, t *sheet.Table) bool {
	if e.dropped {
		return false
	}
	if _, ok := e.charges[t]; ok {
		return false
	}
	return e.variants.holds(lang, t)
}

// charge records size bytes for t. It reports false if t is no longer
// cached, already charged or the entry was purged, in which case the caller
// keeps ownership of the bytes.
//
// The cache check runs under e.mu, and variant callbacks release through
// e.mu after the cache has dropped t, so a recorded charge is always
// released later.
func (e *entry) charge(lang exd.Language, t *sheet.Table, size int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.chargeableLocked(lang, t) {
		return false
	}
	e.charges[t] = size
	return true
}

// release returns the bytes charged for the table computed by fut. A fut
// that is still pending or failed was never charged.
func (e *entry) release(fut *async.Future[*sheet.Table]) {
	if !fut.Ready() {
		return
	}
	t, err := fut.Wait(context.Background())
	if err != nil {
		return
	}

	e.mu.Lock()
	size, ok := e.charges[t]
	delete(e.charges, t)
	e.mu.Unlock()

	if ok {
		e.rc.ReleaseMemory(size)
	}
}

func (e *entry) purge() {
	e.variants.clear()

	e.mu.Lock()
	e.dropped = true
	var total int64
	for _, size := range e.charges {
		total += size
	}
	clear(e.charges)
	e.mu.Unlock()

	e.rc.ReleaseMemory(total)
}

type slotVariants struct {
	slot *cache.Slot[exd.Language, *sheet.Table]
}

func (v *slotVariants) get(ctx context.Context, lang exd.Language, load loadFunc) (*sheet.Table, error) {
	return v.slot.GetOrSet(ctx, lang, load)
}

func (v *slotVariants) holds(lang exd.Language, t *sheet.Table) bool {
	key, held, ok := v.slot.Peek()
	return ok && key == lang && held == t
}

func (v *slotVariants) clear() { v.slot.Clear() }

type lruVariants struct {
	sf *cache.SingleFlight[exd.Language, *sheet.Table]
}

func (v *lruVariants) get(ctx context.Context, lang exd.Language, load loadFunc) (*sheet.Table, error) {
	return v.sf.GetOrCreate(ctx, lang, load).Wait(ctx)
}

func (v *lruVariants) holds(lang exd.Language, t *sheet.Table) bool {
	held, ok := v.sf.Peek(lang)
	return ok && held == t
}

func (v *lruVariants) clear() { v.sf.Purge() }
