package sheet

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/source"
	"github.com/hupe1980/exdcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumns = []exd.Column{
	{Kind: exd.KindUint32, Offset: 0},
	{Kind: exd.KindString, Offset: 4},
}

func itemSheet() testutil.Sheet {
	row := func(id, v uint32, name string) *testutil.Row {
		return testutil.NewRow(id, 8).Uint32(0, v).Str(4, name)
	}
	return testutil.Sheet{
		Name:      "Item",
		RowSize:   8,
		Columns:   itemColumns,
		Languages: []exd.Language{exd.LanguageEnglish, exd.LanguageGerman},
		Pages: [][]*testutil.Row{
			{row(5, 50, "five"), row(6, 60, "six"), row(7, 70, "seven")},
			{row(10, 100, "ten")},
			{row(11, 110, "eleven"), row(12, 120, "twelve")},
		},
		Variants: map[exd.Language][][]*testutil.Row{
			exd.LanguageGerman: {
				{row(5, 50, "fünf"), row(6, 60, "sechs"), row(7, 70, "sieben")},
				{row(10, 100, "zehn")},
				{row(11, 110, "elf"), row(12, 120, "zwölf")},
			},
		},
	}
}

func loadSheet(t *testing.T, s testutil.Sheet, lang exd.Language, opts ...Option) (*Table, error) {
	t.Helper()
	ctx := context.Background()
	src, err := testutil.NewSource(ctx, s)
	require.NoError(t, err)
	return Load(ctx, src, s.Name, s.Header(), lang, opts...)
}

func TestLoad_DefaultSheet(t *testing.T) {
	tbl, err := loadSheet(t, itemSheet(), exd.LanguageEnglish)
	require.NoError(t, err)

	assert.Equal(t, "Item", tbl.Name())
	assert.Equal(t, exd.LanguageEnglish, tbl.Language())
	assert.Equal(t, 6, tbl.RowCount())
	assert.Equal(t, uint64(6), tbl.SubrowCount())
	assert.Positive(t, tbl.Size())

	for i, want := range []uint32{5, 6, 7, 10, 11, 12} {
		id, err := tbl.RowIDAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	row, err := tbl.Row(10)
	require.NoError(t, err)
	v, err := row.Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), v)
	name, err := row.String(4)
	require.NoError(t, err)
	assert.Equal(t, "ten", string(name))

	n, err := tbl.SubrowCountOf(10)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), n)
}

func TestLoad_LanguageVariant(t *testing.T) {
	tbl, err := loadSheet(t, itemSheet(), exd.LanguageGerman)
	require.NoError(t, err)

	row, err := tbl.Row(12)
	require.NoError(t, err)
	v, err := row.Value(itemColumns[1])
	require.NoError(t, err)
	assert.Equal(t, "zwölf", v)
}

func TestLoad_UndeclaredLanguage(t *testing.T) {
	_, err := loadSheet(t, itemSheet(), exd.LanguageJapanese)
	assert.ErrorIs(t, err, exd.ErrNotFound)
}

func TestLoad_RowErrors(t *testing.T) {
	tbl, err := loadSheet(t, itemSheet(), exd.LanguageEnglish)
	require.NoError(t, err)

	_, err = tbl.Row(8)
	assert.ErrorIs(t, err, exd.ErrNotFound)
	_, err = tbl.SubrowCountOf(8)
	assert.ErrorIs(t, err, exd.ErrNotFound)
	_, err = tbl.Subrow(5, 1)
	assert.ErrorIs(t, err, exd.ErrIndex)
	_, err = tbl.RowIDAt(6)
	assert.ErrorIs(t, err, exd.ErrIndex)

	// A bad field read fails only that read.
	row, err := tbl.Row(5)
	require.NoError(t, err)
	_, err = row.Uint64(1 << 20)
	assert.ErrorIs(t, err, exd.ErrBounds)
	_, err = row.Uint32(0)
	assert.NoError(t, err)
}

func TestLoad_SubrowOffsets(t *testing.T) {
	s := testutil.Sheet{
		Name:    "Quest",
		Kind:    exd.SheetSubrows,
		RowSize: 4,
		Columns: []exd.Column{{Kind: exd.KindString, Offset: 0}},
		Pages: [][]*testutil.Row{{
			testutil.NewRow(1, 4).Str(0, "a").AddSubrow().Str(0, "b").AddSubrow().Str(0, "c"),
			testutil.NewRow(2, 4).Str(0, "solo"),
		}},
	}
	tbl, err := loadSheet(t, s, exd.LanguageNone)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, uint64(4), tbl.SubrowCount())

	n, err := tbl.SubrowCountOf(1)
	require.NoError(t, err)
	require.Equal(t, uint16(3), n)

	loc, ok := tbl.Index().Lookup(1)
	require.True(t, ok)
	for sub, want := range []string{"a", "b", "c"} {
		row, err := tbl.Subrow(1, uint16(sub))
		require.NoError(t, err)

		headerEnd := loc.Offset + exd.RowHeaderSize
		assert.Equal(t, headerEnd+uint32(sub)*(2+4)+2, row.Offset())
		assert.Equal(t, headerEnd+3*(2+4), row.StringOrigin())

		got, err := row.String(0)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	_, err = tbl.Subrow(1, 3)
	assert.ErrorIs(t, err, exd.ErrIndex)
}

func TestTable_RowsSkipsEmptySubrowRows(t *testing.T) {
	s := testutil.Sheet{
		Name:    "Quest",
		Kind:    exd.SheetSubrows,
		RowSize: 4,
		Columns: []exd.Column{{Kind: exd.KindUint32, Offset: 0}},
		Pages: [][]*testutil.Row{{
			testutil.NewRow(1, 4).Uint32(0, 10).AddSubrow().Uint32(0, 11),
			{ID: 2},
			testutil.NewRow(3, 4).Uint32(0, 30),
		}},
	}
	tbl, err := loadSheet(t, s, exd.LanguageNone)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.RowCount())

	var ids []uint32
	for id := range tbl.Rows() {
		ids = append(ids, id)
	}
	assert.Equal(t, []uint32{1, 3}, ids)

	n, err := tbl.SubrowCountOf(2)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = tbl.Row(2)
	assert.ErrorIs(t, err, exd.ErrIndex)
}

func TestLoad_SubrowMismatchIsLogged(t *testing.T) {
	s := testutil.Sheet{
		Name:    "Odd",
		RowSize: 4,
		Pages: [][]*testutil.Row{{
			testutil.NewRow(1, 4).Uint32(0, 1).AddSubrow(),
		}},
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	tbl, err := loadSheet(t, s, exd.LanguageNone, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "subrow count mismatch")

	n, err := tbl.SubrowCountOf(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), n)
}

type failingSource struct {
	source.Source
	fail  uint32
	err   error
	calls atomic.Int32
}

func (s *failingSource) FetchPage(ctx context.Context, name string, startID uint32, lang exd.Language) ([]byte, error) {
	s.calls.Add(1)
	if startID == s.fail {
		return nil, s.err
	}
	return s.Source.FetchPage(ctx, name, startID, lang)
}

func TestLoad_PageFailureFailsTable(t *testing.T) {
	ctx := context.Background()
	s := itemSheet()
	src, err := testutil.NewSource(ctx, s)
	require.NoError(t, err)

	boom := errors.New("transport down")
	fs := &failingSource{Source: src, fail: 10, err: boom}

	_, err = Load(ctx, fs, s.Name, s.Header(), exd.LanguageEnglish, WithFetchConcurrency(1))
	assert.ErrorIs(t, err, boom)
}

type corruptSource struct {
	source.Source
}

func (corruptSource) FetchPage(context.Context, string, uint32, exd.Language) ([]byte, error) {
	return []byte("EXDX0000"), nil
}

func TestLoad_DecodeFailureFailsTable(t *testing.T) {
	s := itemSheet()
	_, err := Load(context.Background(), corruptSource{}, s.Name, s.Header(), exd.LanguageEnglish)
	assert.ErrorIs(t, err, exd.ErrDecode)
}

func TestTable_RowsAscending(t *testing.T) {
	tbl, err := loadSheet(t, itemSheet(), exd.LanguageEnglish)
	require.NoError(t, err)

	var ids []uint32
	for id, row := range tbl.Rows() {
		ids = append(ids, id)
		v, err := row.Uint32(0)
		require.NoError(t, err)
		assert.Equal(t, id*10, v)
	}
	assert.Equal(t, []uint32{5, 6, 7, 10, 11, 12}, ids)
	assert.True(t, tbl.IDs().Contains(11))
}
