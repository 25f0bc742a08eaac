package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ingestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.record, WithDebounce(50*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "contract.txt")
	if err := os.WriteFile(path, []byte("agreement body"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return len(rec.snapshot()) >= 1 }) {
		t.Fatal("dropped file was never ingested")
	}
	got := rec.snapshot()
	if filepath.Clean(got[0]) != filepath.Clean(path) {
		t.Errorf("ingested %q, want %q", got[0], path)
	}
}

func TestWatcher_extensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.record, WithDebounce(50*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return len(rec.snapshot()) >= 1 }) {
		t.Fatal("matching file was never ingested")
	}
	for _, p := range rec.snapshot() {
		if filepath.Ext(p) != ".txt" {
			t.Errorf("non-matching file ingested: %q", p)
		}
	}
}

func TestWatcher_debounceCollapsesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewWatcher([]string{dir}, nil, false, rec.record, WithDebounce(150*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "contract.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("revision"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !waitFor(t, 3*time.Second, func() bool { return len(rec.snapshot()) >= 1 }) {
		t.Fatal("file was never ingested")
	}
	// Give any stray timers a chance to fire, then check for collapse.
	time.Sleep(400 * time.Millisecond)
	if n := len(rec.snapshot()); n > 2 {
		t.Errorf("rapid writes produced %d ingestions, want them debounced", n)
	}
}

func TestWatcher_syncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	pre := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(pre, []byte("was here first"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}

	w := NewWatcher([]string{dir}, []string{".txt"}, true, rec.record)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.SyncExistingFiles()
	got := rec.snapshot()
	if len(got) != 1 || filepath.Clean(got[0]) != filepath.Clean(pre) {
		t.Errorf("sync ingested %v, want just %q", got, pre)
	}
}

func TestWatcher_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dropbox")
	w := NewWatcher([]string{root}, nil, true, func(string) {})
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("missing root was not created: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 {
		t.Errorf("Directories() = %v", dirs)
	}
}
