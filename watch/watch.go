package watch

import (
	"context"
	"errors"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/exdcache/exd"
)

// Invalidator is the part of a provider that Local drives.
// *exdcache.Provider implements it.
type Invalidator interface {
	Refresh(ctx context.Context) error
	Evict(name string) bool
}

// Local watches the archive rooted at dir and invalidates inv on changes.
// It returns once the watch is registered; watching stops when ctx is done.
func Local(ctx context.Context, dir string, inv Invalidator, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// fsnotify does not recurse; sheets live in nested directories.
	err = filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return err
	}

	h := &handler{dir: dir, inv: inv, w: w, logger: logger}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				h.handle(ctx, event)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.WarnContext(ctx, "error watching archive", "dir", dir, "err", err)
			}
		}
	}()
	return nil
}

type handler struct {
	dir    string
	inv    Invalidator
	w      *fsnotify.Watcher
	logger *slog.Logger
}

func (h *handler) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := h.w.Add(event.Name); err != nil {
				h.logger.WarnContext(ctx, "cannot watch directory", "dir", event.Name, "err", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(h.dir, event.Name)
	if err != nil {
		return
	}
	name := filepath.ToSlash(rel)

	if name == exd.ListPath {
		if err := h.inv.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.WarnContext(ctx, "listing refresh failed", "err", err)
			return
		}
		h.logger.InfoContext(ctx, "listing changed", "op", event.Op.String())
		return
	}
	if sheet, ok := exd.SheetFromPath(name); ok {
		evicted := h.inv.Evict(sheet)
		h.logger.InfoContext(ctx, "sheet changed",
			"sheet", sheet,
			"op", event.Op.String(),
			"evicted", evicted,
		)
	}
}
