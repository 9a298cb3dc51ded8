package exdcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/exdcache/async"
	"github.com/hupe1980/exdcache/cache"
	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/internal/resource"
	"github.com/hupe1980/exdcache/sheet"
	"github.com/hupe1980/exdcache/source"
)

// Provider serves sheet headers and loaded variants from a Source.
//
// All methods are safe for concurrent use. Concurrent requests for the same
// header or variant share one fetch.
type Provider struct {
	src     source.Source
	opts    options
	rc      *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	listings *async.Registry[*exd.List]
	mu       sync.Mutex
	listing  *async.Initializer[*exd.List]

	headers *cache.SingleFlight[string, *entry]
	closed  atomic.Bool
}

// Open returns a Provider over src and starts fetching the sheet listing in
// the background. Open does not wait for the listing; Names and List do.
func Open(ctx context.Context, src source.Source, optFns ...Option) (*Provider, error) {
	if src == nil {
		return nil, errors.New("exdcache: nil source")
	}

	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.headerCacheSize < 1 {
		return nil, fmt.Errorf("exdcache: header cache size must be positive, got %d", o.headerCacheSize)
	}

	p := &Provider{
		src:      source.WithTimeout(src, o.fetchTimeout),
		opts:     o,
		rc:       resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit}),
		logger:   o.logger,
		metrics:  o.metricsCollector,
		listings: async.NewRegistry[*exd.List](),
	}
	p.headers = cache.NewSingleFlight(o.headerCacheSize, cache.WithOnEvict(p.onHeaderEvict))
	p.listing = p.listings.Start(ctx, p.fetchList)

	return p, nil
}

func (p *Provider) fetchList(ctx context.Context) (*exd.List, error) {
	start := time.Now()
	l, err := p.src.List(ctx)
	n := 0
	if l != nil {
		n = l.Len()
	}
	p.logger.LogListing(ctx, n, time.Since(start), err)
	return l, err
}

// List waits for the background listing and returns it.
func (p *Provider) List(ctx context.Context) (*exd.List, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	for {
		p.mu.Lock()
		init := p.listing
		p.mu.Unlock()

		l, err := init.Wait(ctx)
		if !errors.Is(err, async.ErrDropped) {
			return l, err
		}
		if p.closed.Load() {
			return nil, ErrClosed
		}
		// Replaced by Refresh; wait for the new listing.
	}
}

// Names returns the sheet names in listing order.
func (p *Provider) Names(ctx context.Context) ([]string, error) {
	l, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	return l.Names(), nil
}

// Refresh discards the current listing and starts fetching a new one.
// Cached headers and variants are kept.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	next := p.listings.Start(ctx, p.fetchList)

	p.mu.Lock()
	prev := p.listing
	p.listing = next
	p.mu.Unlock()

	prev.Drop()
	return nil
}

// Header returns the header of sheet name.
func (p *Provider) Header(ctx context.Context, name string) (*exd.Header, error) {
	e, err := p.entry(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.header, nil
}

// Sheet returns the lang variant of sheet name.
//
// If the sheet does not declare lang, the fallback language is loaded instead
// (see WithLanguageFallback and WithStrictLanguages).
func (p *Provider) Sheet(ctx context.Context, name string, lang exd.Language) (*sheet.Table, error) {
	e, err := p.entry(ctx, name)
	if err != nil {
		return nil, err
	}

	lang = p.resolveLanguage(e.header, lang)
	t, err := e.variants.get(ctx, lang, func(ctx context.Context) (*sheet.Table, error) {
		return p.loadSheet(ctx, name, e.header, lang)
	})
	if err != nil {
		return nil, err
	}
	p.charge(ctx, name, e, lang, t)
	return t, nil
}

// Evict drops the cached header and variants of sheet name, including a
// cached failure. The next request fetches it again.
func (p *Provider) Evict(name string) bool {
	return p.headers.Evict(name)
}

// Purge drops every cached header and variant.
func (p *Provider) Purge() {
	p.headers.Purge()
}

// Cached returns the names of cached sheets from most to least recently used.
func (p *Provider) Cached() []string {
	return p.headers.Keys()
}

// CacheStats returns the header cache counters.
func (p *Provider) CacheStats() cache.Stats {
	return p.headers.Stats()
}

// MemoryUsage returns the approximate memory held by loaded variants.
func (p *Provider) MemoryUsage() int64 {
	return p.rc.MemoryUsage()
}

// Close drops the listing and all cached data. Close is idempotent.
func (p *Provider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.mu.Lock()
	init := p.listing
	p.mu.Unlock()
	init.Drop()

	p.headers.Purge()
	return nil
}

func (p *Provider) entry(ctx context.Context, name string) (*entry, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	_, hit := p.headers.Get(name)
	p.metrics.RecordCacheAccess(hit)

	fut := p.headers.GetOrCreate(ctx, name, func(ctx context.Context) (*entry, error) {
		return p.loadHeader(ctx, name)
	})
	return fut.Wait(ctx)
}

func (p *Provider) loadHeader(ctx context.Context, name string) (*entry, error) {
	start := time.Now()
	e, err := func() (*entry, error) {
		buf, err := p.src.FetchHeader(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", name, err)
		}
		h, err := exd.DecodeHeader(buf)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", name, err)
		}
		return newEntry(h, p.opts.variantCacheSize, p.rc), nil
	}()

	elapsed := time.Since(start)
	p.metrics.RecordHeaderLoad(elapsed, err)
	p.logger.LogHeaderLoad(ctx, name, elapsed, err)
	return e, err
}

func (p *Provider) loadSheet(ctx context.Context, name string, h *exd.Header, lang exd.Language) (*sheet.Table, error) {
	start := time.Now()
	t, err := sheet.Load(ctx, p.src, name, h, lang,
		sheet.WithFetchConcurrency(p.opts.fetchConcurrency),
		sheet.WithLogger(p.logger.Logger),
	)

	rows := 0
	if t != nil {
		rows = t.RowCount()
	}
	elapsed := time.Since(start)
	p.metrics.RecordSheetLoad(rows, elapsed, err)
	p.logger.LogSheetLoad(ctx, name, lang, rows, elapsed, err)
	return t, err
}

func (p *Provider) resolveLanguage(h *exd.Header, lang exd.Language) exd.Language {
	if p.opts.strictLanguages || h.HasLanguage(lang) {
		return lang
	}
	if h.HasLanguage(p.opts.fallback) {
		return p.opts.fallback
	}
	return lang
}

// charge accounts t against the memory limit, evicting least recently used
// sheets other than name until it fits. A table that cannot fit is still
// returned but left unaccounted, as is one the variant cache already dropped.
func (p *Provider) charge(ctx context.Context, name string, e *entry, lang exd.Language, t *sheet.Table) {
	if !e.chargeable(lang, t) {
		return
	}
	size := t.Size()
	if limit := p.rc.MemoryLimit(); limit > 0 && size > limit {
		p.logger.WarnContext(ctx, "sheet exceeds memory limit",
			"sheet", name,
			"size", size,
			"limit", limit,
		)
		return
	}
	for !p.rc.TryAcquireMemory(size) {
		victim, ok := p.evictionCandidate(name)
		if !ok {
			p.logger.WarnContext(ctx, "memory limit reached",
				"sheet", name,
				"size", size,
				"usage", p.rc.MemoryUsage(),
				"limit", p.rc.MemoryLimit(),
			)
			return
		}
		p.headers.Evict(victim)
		p.logger.LogEvict(ctx, victim, "memory")
	}
	if !e.charge(lang, t, size) {
		p.rc.ReleaseMemory(size)
	}
}

func (p *Provider) evictionCandidate(keep string) (string, bool) {
	keys := p.headers.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] != keep {
			return keys[i], true
		}
	}
	return "", false
}

func (p *Provider) onHeaderEvict(name string, fut *async.Future[*entry]) {
	p.metrics.RecordEviction()
	purge := func() {
		e, err := fut.Wait(context.Background())
		if err != nil {
			return
		}
		e.purge()
	}
	if fut.Ready() {
		purge()
		return
	}
	// Waiters still receive the pending entry; drop whatever they load
	// into it once the header arrives.
	go purge()
}
