package exdcache

import (
	"log/slog"
	"time"

	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/sheet"
)

const (
	// DefaultHeaderCacheSize is the default number of cached sheet headers.
	DefaultHeaderCacheSize = 64
	// WebHeaderCacheSize is the header cache size recommended for HTTP backends.
	WebHeaderCacheSize = 256
)

type options struct {
	headerCacheSize  int
	variantCacheSize int
	fallback         exd.Language
	strictLanguages  bool
	fetchConcurrency int
	fetchTimeout     time.Duration
	memoryLimit      int64
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		headerCacheSize:  DefaultHeaderCacheSize,
		fallback:         exd.LanguageNone,
		fetchConcurrency: sheet.DefaultFetchConcurrency,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures a Provider.
type Option func(*options)

// WithHeaderCacheSize sets the number of sheet headers kept in the LRU.
// Each cached header owns the variants loaded for it, so this also bounds the
// number of sheets with loaded rows.
func WithHeaderCacheSize(n int) Option {
	return func(o *options) {
		o.headerCacheSize = n
	}
}

// WithVariantCacheSize keeps up to n language variants per sheet in an LRU.
//
// The default (n <= 1) keeps exactly one variant per sheet and replaces it
// whenever another language is requested.
func WithVariantCacheSize(n int) Option {
	return func(o *options) {
		o.variantCacheSize = n
	}
}

// WithLanguageFallback sets the language loaded when a sheet does not declare
// the requested one. The default is exd.LanguageNone.
func WithLanguageFallback(lang exd.Language) Option {
	return func(o *options) {
		o.fallback = lang
		o.strictLanguages = false
	}
}

// WithStrictLanguages disables the language fallback: requesting an
// undeclared language fails with ErrNotFound.
func WithStrictLanguages() Option {
	return func(o *options) {
		o.strictLanguages = true
	}
}

// WithFetchConcurrency limits concurrent page fetches per variant load.
func WithFetchConcurrency(n int) Option {
	return func(o *options) {
		o.fetchConcurrency = n
	}
}

// WithFetchTimeout bounds every individual source call.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}

// WithMemoryLimit caps the approximate memory held by loaded variants. When a
// load would exceed it, least recently used sheets are evicted first.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMetricsCollector sets a custom metrics collector for monitoring operations.
//
// If nil is passed, metrics collection is disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets a custom structured logger.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithSlogHandler wraps handler in a Logger.
func WithSlogHandler(handler slog.Handler) Option {
	return func(o *options) {
		o.logger = NewLogger(handler)
	}
}
