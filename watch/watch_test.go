package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/exdcache/exd"
)

const (
	timeout = 5 * time.Second
	tick    = 10 * time.Millisecond
)

type recorder struct {
	mu        sync.Mutex
	refreshes int
	evicted   []string
}

func (r *recorder) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	return nil
}

func (r *recorder) Evict(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted = append(r.evicted, name)
	return true
}

func (r *recorder) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshes, slices.Clone(r.evicted)
}

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestLocal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, exd.ListPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	require.NoError(t, Local(ctx, root, rec, nil))

	writeFile(t, root, exd.HeaderPath("Item"))
	require.Eventually(t, func() bool {
		_, ev := rec.snapshot()
		return slices.Contains(ev, "Item")
	}, timeout, tick)

	writeFile(t, root, exd.PagePath("Item", 0, exd.LanguageEnglish))
	writeFile(t, root, exd.ListPath)
	require.Eventually(t, func() bool {
		n, _ := rec.snapshot()
		return n > 0
	}, timeout, tick)

	_, ev := rec.snapshot()
	for _, name := range ev {
		assert.Equal(t, "Item", name)
	}
}

func TestLocal_NewDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "exd"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	require.NoError(t, Local(ctx, root, rec, nil))

	dir := filepath.Join(root, "exd", "quest")
	require.NoError(t, os.Mkdir(dir, 0755))

	// The directory watch is registered asynchronously; rewrite until seen.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "Intro.exh"), []byte("x"), 0644)
		_, ev := rec.snapshot()
		return slices.Contains(ev, "quest/Intro")
	}, timeout, 50*time.Millisecond)
}

func TestLocal_MissingDir(t *testing.T) {
	err := Local(context.Background(), filepath.Join(t.TempDir(), "missing"), &recorder{}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
