package sheet

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/internal/conv"
	"github.com/hupe1980/exdcache/source"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency is the number of pages fetched in parallel by Load.
const DefaultFetchConcurrency = 8

type options struct {
	concurrency int
	logger      *slog.Logger
}

// Option configures Load.
type Option func(*options)

// WithFetchConcurrency limits the number of concurrent page fetches.
// Values below 1 select DefaultFetchConcurrency.
func WithFetchConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultFetchConcurrency
		}
		o.concurrency = n
	}
}

// WithLogger sets the logger used for integrity warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Table is one loaded language variant of a sheet.
type Table struct {
	name   string
	header *exd.Header
	lang   exd.Language
	pages  []*exd.Page
	index  *Index
	size   int64
}

// Load fetches and decodes every page of the lang variant of sheet name.
//
// It fails with exd.ErrNotFound if the header does not declare lang; callers
// that want to substitute a neutral language must do so before calling Load.
// Any fetch or decode failure fails the whole load.
func Load(ctx context.Context, src source.Source, name string, h *exd.Header, lang exd.Language, opts ...Option) (*Table, error) {
	o := options{
		concurrency: DefaultFetchConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !h.HasLanguage(lang) {
		return nil, fmt.Errorf("%w: sheet %s has no %s variant", exd.ErrNotFound, name, lang)
	}
	if len(h.Pages) > math.MaxUint16+1 {
		return nil, &exd.DecodeError{What: "header", Reason: fmt.Sprintf("sheet %s declares %d pages", name, len(h.Pages))}
	}

	pages := make([]*exd.Page, len(h.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, pr := range h.Pages {
		g.Go(func() error {
			buf, err := src.FetchPage(gctx, name, pr.StartID, lang)
			if err != nil {
				return fmt.Errorf("sheet %s: page %d: %w", name, pr.StartID, err)
			}
			p, err := exd.DecodePage(buf, h.RowSize)
			if err != nil {
				return fmt.Errorf("sheet %s: page %d: %w", name, pr.StartID, err)
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := &Table{
		name:   name,
		header: h,
		lang:   lang,
		pages:  pages,
	}

	b := NewIndexBuilder(int(h.RowCount))
	for i, p := range pages {
		pageIdx, err := conv.Narrow[uint16](i)
		if err != nil {
			return nil, &exd.DecodeError{What: "header", Reason: "too many pages", Err: err}
		}
		if err := b.AddPage(p, pageIdx, h.HasSubrows()); err != nil {
			return nil, &exd.DecodeError{What: "page", Reason: fmt.Sprintf("sheet %s: page %d", name, h.Pages[i].StartID), Err: err}
		}
		if !h.HasSubrows() {
			checkSingleRows(ctx, o.logger, name, h.Pages[i].StartID, p)
		}
		t.size += int64(len(p.Data)) + int64(len(p.Rows))*exd.RowDefinitionSize
	}
	t.index = b.Build()
	// Map entry plus bitmap overhead, roughly.
	t.size += int64(t.index.Len()) * 16

	return t, nil
}

// checkSingleRows logs rows of a default sheet whose header declares a subrow
// count other than one. Such rows are still served as single rows.
func checkSingleRows(ctx context.Context, logger *slog.Logger, name string, startID uint32, p *exd.Page) {
	bad := 0
	var first uint32
	for _, def := range p.Rows {
		rh, err := p.RowHeader(def.Offset)
		if err != nil || rh.SubrowCount == 1 {
			continue
		}
		if bad == 0 {
			first = def.ID
		}
		bad++
	}
	if bad > 0 {
		logger.WarnContext(ctx, "subrow count mismatch in default sheet",
			"sheet", name,
			"page", startID,
			"rows", bad,
			"first_row", first,
		)
	}
}

// Name returns the sheet name.
func (t *Table) Name() string { return t.name }

// Header returns the sheet header shared by all variants.
func (t *Table) Header() *exd.Header { return t.header }

// Language returns the loaded variant.
func (t *Table) Language() exd.Language { return t.lang }

// Index returns the row index.
func (t *Table) Index() *Index { return t.index }

// Size returns the approximate memory held by the table in bytes.
func (t *Table) Size() int64 { return t.size }

// RowCount returns the number of distinct row identifiers.
func (t *Table) RowCount() int { return t.index.Len() }

// SubrowCount returns the number of (identifier, subrow) pairs.
func (t *Table) SubrowCount() uint64 { return t.index.SubrowTotal() }

// RowIDAt returns the identifier at position i in page order.
func (t *Table) RowIDAt(i int) (uint32, error) { return t.index.RowIDAt(i) }

// SubrowCountOf returns the number of subrows of row id.
func (t *Table) SubrowCountOf(id uint32) (uint16, error) {
	loc, ok := t.index.Lookup(id)
	if !ok {
		return 0, t.notFound(id)
	}
	return loc.Subrows, nil
}

// Row returns the first subrow of row id.
func (t *Table) Row(id uint32) (exd.Row, error) {
	return t.Subrow(id, 0)
}

// Subrow returns subrow sub of row id.
//
// In subrow sheets every field block is preceded by a two byte subrow
// identifier, so subrow n starts at header end + n*(2+row size) + 2. Strings
// are resolved against the end of the last field block.
func (t *Table) Subrow(id uint32, sub uint16) (exd.Row, error) {
	loc, ok := t.index.Lookup(id)
	if !ok {
		return exd.Row{}, t.notFound(id)
	}
	if sub >= loc.Subrows {
		return exd.Row{}, fmt.Errorf("%w: subrow %d of row %d (has %d)", exd.ErrIndex, sub, id, loc.Subrows)
	}

	page := t.pages[loc.Page]
	rowSize := uint64(t.header.RowSize)
	headerEnd := uint64(loc.Offset) + exd.RowHeaderSize

	var start, origin uint64
	if t.header.HasSubrows() {
		stride := exd.SubrowHeaderSize + rowSize
		start = headerEnd + uint64(sub)*stride + exd.SubrowHeaderSize
		origin = headerEnd + uint64(loc.Subrows)*stride
	} else {
		start = headerEnd
		origin = headerEnd + rowSize
	}
	o32, err := conv.Narrow[uint32](origin)
	if err != nil {
		return exd.Row{}, &exd.BoundsError{Offset: start, Width: int(rowSize), Start: uint64(page.Offset), End: page.End()}
	}
	// start < origin
	return exd.NewRow(page, uint32(start), o32), nil
}

// IDs returns a copy of the identifier set.
func (t *Table) IDs() *roaring.Bitmap { return t.index.IDs() }

// Rows iterates over the first subrow of every row in ascending identifier order.
//
// Rows of a subrow sheet that declare zero subrows have no first subrow and are
// skipped, as are rows whose field block lies beyond the addressable range.
// Row reports the error for such an identifier.
func (t *Table) Rows() iter.Seq2[uint32, exd.Row] {
	return func(yield func(uint32, exd.Row) bool) {
		for id, loc := range t.index.All() {
			if loc.Subrows == 0 {
				continue
			}
			r, err := t.Row(id)
			if err != nil {
				continue
			}
			if !yield(id, r) {
				return
			}
		}
	}
}

func (t *Table) notFound(id uint32) error {
	return fmt.Errorf("%w: row %d in sheet %s", exd.ErrNotFound, id, t.name)
}
