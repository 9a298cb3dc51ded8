package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names a whole-file compression format recognised by CompressedStore.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

// Suffix returns the file name suffix of compressed files.
func (c Codec) Suffix() string {
	switch c {
	case CodecZstd:
		return ".zst"
	case CodecLZ4:
		return ".lz4"
	default:
		return ""
	}
}

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// ParseCodec parses "none", "zstd" or "lz4".
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CodecNone, nil
	case "zstd", "zst":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("blobstore: unknown codec %q", s)
	}
}

var decodeOrder = []Codec{CodecNone, CodecZstd, CodecLZ4}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress encodes data with the codec. CodecNone returns data unchanged.
func Compress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("blobstore: unknown codec %d", c)
	}
}

// Decompress decodes data written by Compress.
func Decompress(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, nil)
	case CodecLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("blobstore: unknown codec %d", c)
	}
}

// CompressedStore serves archive files that may be stored compressed.
//
// Opening "exd/item.exh" tries the plain name first, then "exd/item.exh.zst",
// then "exd/item.exh.lz4". Listing reports the logical (uncompressed) names.
type CompressedStore struct {
	inner BlobStore
}

// NewCompressedStore wraps inner.
func NewCompressedStore(inner BlobStore) *CompressedStore {
	return &CompressedStore{inner: inner}
}

func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	data, err := s.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return &bytesBlob{data: data}, nil
}

// Fetch implements Fetcher.
func (s *CompressedStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	for _, c := range decodeOrder {
		raw, err := ReadAll(ctx, s.inner, name+c.Suffix())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data, err := Decompress(c, raw)
		if err != nil {
			return nil, fmt.Errorf("blobstore: %s: %s decode: %w", name, c, err)
		}
		return data, nil
	}
	return nil, ErrNotFound
}

func (s *CompressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		for _, c := range decodeOrder[1:] {
			n = strings.TrimSuffix(n, c.Suffix())
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
