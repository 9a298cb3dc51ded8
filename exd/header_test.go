package exd_test

import (
	"testing"

	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	want := &exd.Header{
		RowSize:  12,
		Kind:     exd.SheetSubrows,
		RowCount: 30,
		Columns: []exd.Column{
			{Kind: exd.KindString, Offset: 0},
			{Kind: exd.KindInt64, Offset: 4},
		},
		Pages:     []exd.PageRange{{StartID: 0, RowCount: 20}, {StartID: 500, RowCount: 10}},
		Languages: []exd.Language{exd.LanguageJapanese, exd.LanguageEnglish},
	}

	got, err := exd.DecodeHeader(testutil.EncodeHeader(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.HasSubrows())
	assert.True(t, got.HasLanguage(exd.LanguageEnglish))
	assert.False(t, got.HasLanguage(exd.LanguageGerman))
	assert.Equal(t, uint32(30), got.DeclaredRows())
}

func TestDecodeHeader_Errors(t *testing.T) {
	h := &exd.Header{
		RowSize: 4,
		Kind:    exd.SheetDefault,
		Columns: []exd.Column{{Kind: exd.KindUint32, Offset: 0}},
	}
	valid := testutil.EncodeHeader(h)

	overflow := testutil.EncodeHeader(&exd.Header{
		RowSize: 4,
		Columns: []exd.Column{{Kind: exd.KindUint64, Offset: 0}},
	})

	for name, buf := range map[string][]byte{
		"truncated":       valid[:16],
		"bad magic":       append([]byte("EXDF"), valid[4:]...),
		"missing columns": valid[:len(valid)-2],
		"column overflow": overflow,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := exd.DecodeHeader(buf)
			assert.ErrorIs(t, err, exd.ErrDecode)
		})
	}
}
