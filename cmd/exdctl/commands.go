package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	json "github.com/go-json-experiment/json"
	"github.com/hupe1980/exdcache/blobstore"
	"github.com/hupe1980/exdcache/exd"
	"github.com/hupe1980/exdcache/sheet"
	"github.com/hupe1980/exdcache/watch"
)

func cmdList(ctx context.Context, c Config, logger *slog.Logger) error {
	p, done, err := openProvider(ctx, c, logger)
	if err != nil {
		return err
	}
	defer done()

	l, err := p.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTAG")
	for _, name := range l.Names() {
		tag, _ := l.Tag(name)
		fmt.Fprintf(w, "%s\t%d\n", name, tag)
	}
	return w.Flush()
}

func cmdHeader(ctx context.Context, c Config, logger *slog.Logger) error {
	if c.Sheet == "" {
		return errors.New("header: -sheet is required")
	}
	p, done, err := openProvider(ctx, c, logger)
	if err != nil {
		return err
	}
	defer done()

	h, err := p.Header(ctx, c.Sheet)
	if err != nil {
		return err
	}

	langs := make([]string, len(h.Languages))
	for i, l := range h.Languages {
		langs[i] = l.String()
	}
	fmt.Printf("sheet:     %s\nkind:      %s\nrow size:  %d\nrows:      %d\nlanguages: %s\n",
		c.Sheet, h.Kind, h.RowSize, h.RowCount, strings.Join(langs, ", "))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nCOLUMN\tKIND\tOFFSET")
	for i, col := range h.Columns {
		fmt.Fprintf(w, "%d\t%s\t%d\n", i, col.Kind, col.Offset)
	}
	fmt.Fprintln(w, "\nPAGE\tSTART\tROWS")
	for i, pr := range h.Pages {
		fmt.Fprintf(w, "%d\t%d\t%d\n", i, pr.StartID, pr.RowCount)
	}
	return w.Flush()
}

func cmdRows(ctx context.Context, c Config, logger *slog.Logger) error {
	if c.Sheet == "" {
		return errors.New("rows: -sheet is required")
	}
	lang, err := exd.ParseLanguage(c.Language)
	if err != nil {
		return err
	}
	p, done, err := openProvider(ctx, c, logger)
	if err != nil {
		return err
	}
	defer done()

	start := time.Now()
	tbl, err := p.Sheet(ctx, c.Sheet, lang)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "sheet ready",
		"sheet", c.Sheet,
		"language", tbl.Language(),
		"rows", tbl.RowCount(),
		"subrows", tbl.SubrowCount(),
		"elapsed", time.Since(start),
	)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	return writeRows(out, tbl, c)
}

// writeRows prints the rows of tbl selected by c.IDs, at most c.Limit rows
// with all their subrows.
func writeRows(out *bufio.Writer, tbl *sheet.Table, c Config) error {
	ids := tbl.IDs()
	if c.IDs != "" {
		want, err := parseIDs(c.IDs)
		if err != nil {
			return err
		}
		ids.And(want)
	}

	printed := 0
	it := ids.Iterator()
	for it.HasNext() {
		if c.Limit > 0 && printed >= c.Limit {
			break
		}
		id := it.Next()
		n, err := tbl.SubrowCountOf(id)
		if err != nil {
			return err
		}
		for sub := range n {
			if err := printRow(out, tbl, id, sub, c.JSON); err != nil {
				return err
			}
		}
		printed++
	}
	return nil
}

func printRow(out *bufio.Writer, tbl *sheet.Table, id uint32, sub uint16, asJSON bool) error {
	row, err := tbl.Subrow(id, sub)
	if err != nil {
		return err
	}
	cols := tbl.Header().Columns
	cells := make([]any, len(cols))
	for i, col := range cols {
		v, err := row.Value(col)
		if err != nil {
			// A bad cell does not invalidate the row.
			v = "!" + err.Error()
		}
		cells[i] = v
	}

	key := strconv.FormatUint(uint64(id), 10)
	if tbl.Header().HasSubrows() {
		key += "." + strconv.FormatUint(uint64(sub), 10)
	}

	if asJSON {
		b, err := json.Marshal(map[string]any{"id": key, "cells": cells}, json.Deterministic(true))
		if err != nil {
			return err
		}
		out.Write(b)
		return out.WriteByte('\n')
	}
	fmt.Fprint(out, key)
	for _, v := range cells {
		fmt.Fprintf(out, "\t%v", v)
	}
	return out.WriteByte('\n')
}

// parseIDs parses a comma separated list of ids and inclusive ranges.
func parseIDs(s string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("ids: %q: %w", part, err)
		}
		last := first
		if isRange {
			if last, err = strconv.ParseUint(hi, 10, 32); err != nil {
				return nil, fmt.Errorf("ids: %q: %w", part, err)
			}
		}
		if last < first {
			return nil, fmt.Errorf("ids: %q: empty range", part)
		}
		bm.AddRange(first, last+1)
	}
	return bm, nil
}

// cmdPack copies an archive into a single bolt file, compressing every file
// with the configured codec.
func cmdPack(ctx context.Context, c Config, logger *slog.Logger) error {
	if c.Out == "" {
		return errors.New("pack: -out is required")
	}
	codec, err := blobstore.ParseCodec(c.Codec)
	if err != nil {
		return err
	}
	src, closer, err := openStore(ctx, c, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	dst, err := blobstore.OpenBoltStore(c.Out, blobstore.BoltOptions{Timeout: time.Second})
	if err != nil {
		return err
	}
	defer dst.Close()

	names, err := src.List(ctx, "exd/")
	if err != nil {
		return err
	}

	var raw, packed int64
	for _, name := range names {
		data, err := blobstore.ReadAll(ctx, src, name)
		if err != nil {
			return fmt.Errorf("pack: %s: %w", name, err)
		}
		enc, err := blobstore.Compress(codec, data)
		if err != nil {
			return fmt.Errorf("pack: %s: %w", name, err)
		}
		if err := dst.Put(ctx, name+codec.Suffix(), enc); err != nil {
			return fmt.Errorf("pack: %s: %w", name, err)
		}
		raw += int64(len(data))
		packed += int64(len(enc))
	}

	logger.InfoContext(ctx, "archive packed",
		"files", len(names),
		"codec", codec,
		"raw_bytes", raw,
		"packed_bytes", packed,
		"out", c.Out,
	)
	return nil
}

// cmdWatch serves a local archive and invalidates cached sheets as files
// change until interrupted.
func cmdWatch(ctx context.Context, c Config, logger *slog.Logger) error {
	if !strings.EqualFold(c.Backend, "local") {
		return fmt.Errorf("watch: needs the local backend, got %q", c.Backend)
	}
	if c.CacheMB > 0 {
		return errors.New("watch: the block cache would serve stale data; set -cachemb 0")
	}
	p, done, err := openProvider(ctx, c, logger)
	if err != nil {
		return err
	}
	defer done()

	names, err := p.Names(ctx)
	if err != nil {
		return err
	}
	if err := watch.Local(ctx, c.Path, p, logger); err != nil {
		return err
	}
	logger.InfoContext(ctx, "watching archive", "dir", c.Path, "sheets", len(names))

	<-ctx.Done()
	st := p.CacheStats()
	logger.Info("stopped", "hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions)
	return nil
}
