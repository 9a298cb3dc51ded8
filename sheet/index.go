package sheet

import (
	"fmt"
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/exdcache/exd"
)

// Location records where a row lives.
type Location struct {
	// Offset is the absolute offset of the row header within its page.
	Offset uint32
	// Page is the index of the page in header order.
	Page uint16
	// Subrows is the number of subrows (1 for default sheets).
	Subrows uint16
}

// Run maps a contiguous block of positions to a contiguous block of
// identifiers: position Start+k holds identifier First+k for k < Len.
type Run struct {
	Start uint32
	First uint32
	Len   uint32
}

func (r Run) contains(i uint32) bool {
	return i >= r.Start && i-r.Start < r.Len
}

// IndexBuilder assembles an Index from rows visited in page order.
// It is not safe for concurrent use.
type IndexBuilder struct {
	rows  map[uint32]Location
	runs  []Run
	cur   Run
	open  bool
	count uint32
}

// NewIndexBuilder returns a builder sized for about n rows.
func NewIndexBuilder(n int) *IndexBuilder {
	return &IndexBuilder{rows: make(map[uint32]Location, n)}
}

// Add records row id at loc. A duplicate identifier overwrites the earlier
// location.
func (b *IndexBuilder) Add(id uint32, loc Location) {
	b.rows[id] = loc

	if b.open && uint64(id) == uint64(b.cur.First)+uint64(b.cur.Len) {
		b.cur.Len++
	} else {
		if b.open {
			b.runs = append(b.runs, b.cur)
		}
		b.cur = Run{Start: b.count, First: id, Len: 1}
		b.open = true
	}
	b.count++
}

// AddPage records every row of page p, which is page number pageIdx of the
// sheet. Subrow counts are read from the row headers when subrows is true.
func (b *IndexBuilder) AddPage(p *exd.Page, pageIdx uint16, subrows bool) error {
	for _, def := range p.Rows {
		loc := Location{Offset: def.Offset, Page: pageIdx, Subrows: 1}
		if subrows {
			rh, err := p.RowHeader(def.Offset)
			if err != nil {
				return fmt.Errorf("row %d: %w", def.ID, err)
			}
			loc.Subrows = rh.SubrowCount
		}
		b.Add(def.ID, loc)
	}
	return nil
}

// Build closes the open run and returns the index. The builder must not be
// used afterwards.
func (b *IndexBuilder) Build() *Index {
	if b.open {
		b.runs = append(b.runs, b.cur)
		b.open = false
	}

	ids := roaring.New()
	var subrows uint64
	for id, loc := range b.rows {
		ids.Add(id)
		subrows += uint64(loc.Subrows)
	}
	ids.RunOptimize()

	return &Index{
		rows:    b.rows,
		runs:    b.runs,
		subrows: subrows,
		ids:     ids,
	}
}

// Index is the immutable row index of one sheet variant.
type Index struct {
	rows    map[uint32]Location
	runs    []Run
	subrows uint64
	ids     *roaring.Bitmap
}

// Len returns the number of distinct identifiers.
func (x *Index) Len() int { return len(x.rows) }

// SubrowTotal returns the number of (identifier, subrow) pairs.
func (x *Index) SubrowTotal() uint64 { return x.subrows }

// Lookup returns the location of id.
func (x *Index) Lookup(id uint32) (Location, bool) {
	loc, ok := x.rows[id]
	return loc, ok
}

// RowIDAt returns the identifier at position i.
func (x *Index) RowIDAt(i int) (uint32, error) {
	if i < 0 || i >= len(x.rows) {
		return 0, fmt.Errorf("%w: position %d of %d", exd.ErrIndex, i, len(x.rows))
	}
	pos := uint32(i)
	j := sort.Search(len(x.runs), func(k int) bool { return x.runs[k].Start > pos }) - 1
	if j < 0 || !x.runs[j].contains(pos) {
		return 0, fmt.Errorf("%w: position %d not covered by run list", exd.ErrIndex, i)
	}
	r := x.runs[j]
	return r.First + (pos - r.Start), nil
}

// Runs returns a copy of the run list.
func (x *Index) Runs() []Run {
	out := make([]Run, len(x.runs))
	copy(out, x.runs)
	return out
}

// IDs returns a copy of the identifier set.
func (x *Index) IDs() *roaring.Bitmap {
	return x.ids.Clone()
}

// All iterates over identifiers in ascending order.
func (x *Index) All() iter.Seq2[uint32, Location] {
	return func(yield func(uint32, Location) bool) {
		it := x.ids.Iterator()
		for it.HasNext() {
			id := it.Next()
			if !yield(id, x.rows[id]) {
				return
			}
		}
	}
}
