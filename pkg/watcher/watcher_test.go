package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestWatcher(t *testing.T, quiet time.Duration) (*Watcher, []string, chan []string) {
	t.Helper()
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "phases.jsonl"), filepath.Join(dir, "tasks.jsonl")}
	got := make(chan []string, 10)
	w, err := New(paths, quiet, func(changed []string) { got <- changed }, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, paths, got
}

func TestBurstIsReportedOnce(t *testing.T) {
	w, paths, got := newTestWatcher(t, 30*time.Millisecond)
	w.note(paths[1])
	w.note(paths[0])
	w.note(paths[1])

	select {
	case changed := <-got:
		if diff := cmp.Diff(paths, changed); diff != "" {
			t.Errorf("changed files (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no report")
	}
	select {
	case extra := <-got:
		t.Fatalf("burst reported twice, second time %v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSeparateBurstsReportOnlyNewFiles(t *testing.T) {
	w, paths, got := newTestWatcher(t, 20*time.Millisecond)
	w.note(paths[0])
	if first := <-got; len(first) != 1 || first[0] != paths[0] {
		t.Fatalf("first report = %v", first)
	}
	w.note(paths[1])
	if second := <-got; len(second) != 1 || second[0] != paths[1] {
		t.Fatalf("second report = %v", second)
	}
}

func TestCloseDropsPendingChanges(t *testing.T) {
	w, paths, got := newTestWatcher(t, 30*time.Millisecond)
	w.note(paths[0])
	w.Close()
	w.note(paths[1])
	select {
	case changed := <-got:
		t.Fatalf("reported %v after Close", changed)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDefaultQuiet(t *testing.T) {
	w, _, _ := newTestWatcher(t, 0)
	if w.Quiet() != DefaultQuiet {
		t.Errorf("Quiet = %v, want %v", w.Quiet(), DefaultQuiet)
	}
}

func TestWatcherSeesAtomicRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 10)
	w, err := New([]string{path}, 20*time.Millisecond, func(files []string) { changed <- files }, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("callback fired for an unwatched file")
	case <-time.After(150 * time.Millisecond):
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("{\"id\":\"a\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	select {
	case files := <-changed:
		if len(files) != 1 || filepath.Base(files[0]) != "tasks.jsonl" {
			t.Errorf("changed = %v", files)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no callback after rewrite")
	}
}

func TestNewRequiresPaths(t *testing.T) {
	if _, err := New(nil, 0, func([]string) {}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.db")
	w, err := New([]string{path}, 0, func([]string) {}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
