package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/exdcache/blobstore"
	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/source"
)

// Sheet describes a synthetic sheet.
type Sheet struct {
	Name    string
	Tag     int32
	Kind    exd.SheetKind
	RowSize uint16
	Columns []exd.Column
	// Languages defaults to {exd.LanguageNone}.
	Languages []exd.Language
	// Pages holds the rows of every page, used for every language without an
	// entry in Variants.
	Pages    [][]*Row
	Variants map[exd.Language][][]*Row
}

// Header returns the header describing s.
func (s Sheet) Header() *exd.Header {
	kind := s.Kind
	if kind == exd.SheetUnknown {
		kind = exd.SheetDefault
	}
	h := &exd.Header{
		RowSize:   s.RowSize,
		Kind:      kind,
		Columns:   s.Columns,
		Languages: s.languages(),
	}
	for _, rows := range s.Pages {
		pr := exd.PageRange{RowCount: uint32(len(rows))}
		if len(rows) > 0 {
			pr.StartID = rows[0].ID
		}
		h.Pages = append(h.Pages, pr)
		h.RowCount += pr.RowCount
	}
	return h
}

func (s Sheet) languages() []exd.Language {
	if len(s.Languages) == 0 {
		return []exd.Language{exd.LanguageNone}
	}
	return s.Languages
}

// Files returns every archive file of s keyed by path.
func (s Sheet) Files() map[string][]byte {
	h := s.Header()
	files := map[string][]byte{exd.HeaderPath(s.Name): EncodeHeader(h)}
	for _, lang := range h.Languages {
		pages := s.Pages
		if v, ok := s.Variants[lang]; ok {
			pages = v
		}
		for i, rows := range pages {
			files[exd.PagePath(s.Name, h.Pages[i].StartID, lang)] = EncodePage(rows, h.HasSubrows())
		}
	}
	return files
}

// Populate writes the listing and all files of sheets into store.
func Populate(ctx context.Context, store *blobstore.MemoryStore, sheets ...Sheet) error {
	names := make([]string, 0, len(sheets))
	tags := make(map[string]int32, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
		tags[s.Name] = s.Tag
		for path, data := range s.Files() {
			if err := store.Put(ctx, path, data); err != nil {
				return err
			}
		}
	}
	return store.Put(ctx, exd.ListPath, EncodeList(exd.NewList(names, tags)))
}

// NewSource returns a Source over an in-memory archive holding sheets.
func NewSource(ctx context.Context, sheets ...Sheet) (*source.BlobSource, error) {
	store := blobstore.NewMemoryStore()
	if err := Populate(ctx, store, sheets...); err != nil {
		return nil, err
	}
	return source.FromBlobs(store), nil
}

// CountingSource wraps a Source and counts calls per operation.
//
// A non-nil Gate blocks every call until it is closed.
type CountingSource struct {
	Inner source.Source
	Gate  chan struct{}

	Lists   atomic.Int64
	Headers atomic.Int64
	Pages   atomic.Int64

	mu     sync.Mutex
	errors map[string]error
}

// NewCountingSource wraps inner.
func NewCountingSource(inner source.Source) *CountingSource {
	return &CountingSource{Inner: inner}
}

// FailHeader makes FetchHeader(name) return err until cleared with a nil err.
func (s *CountingSource) FailHeader(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errors == nil {
		s.errors = make(map[string]error)
	}
	if err == nil {
		delete(s.errors, name)
		return
	}
	s.errors[name] = err
}

func (s *CountingSource) wait(ctx context.Context) error {
	if s.Gate == nil {
		return nil
	}
	select {
	case <-s.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CountingSource) List(ctx context.Context) (*exd.List, error) {
	s.Lists.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Inner.List(ctx)
}

func (s *CountingSource) FetchHeader(ctx context.Context, name string) ([]byte, error) {
	s.Headers.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	err := s.errors[name]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Inner.FetchHeader(ctx, name)
}

func (s *CountingSource) FetchPage(ctx context.Context, name string, startID uint32, lang exd.Language) ([]byte, error) {
	s.Pages.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Inner.FetchPage(ctx, name, startID, lang)
}
