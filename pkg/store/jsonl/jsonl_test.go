package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, seed model.Snapshot) store.Store {
		s := New(filepath.Join(t.TempDir(), ".roadmap"), nil)
		if err := s.Replace(context.Background(), seed); err != nil {
			t.Fatalf("Replace: %v", err)
		}
		return s
	})
}

func TestFetchAll_MissingFilesAreEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nothing-here"), nil)
	snap, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(snap.Tasks) != 0 || len(snap.Phases) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestFetchAll_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`{"id":"a","name":"First","blockedBy":[]}`,
		`{not json`,
		``,
		`{"id":"b","name":"Second","blockedBy":["a"],"date":"2026-04-01T10:00:00Z"}`,
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, TasksFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := New(dir, nil).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(snap.Tasks))
	}
	if snap.Tasks[1].Date.String() != "2026-04-01" {
		t.Errorf("timestamp not truncated: %s", snap.Tasks[1].Date)
	}
}

func TestArchiveKeepsRecord(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	ctx := context.Background()
	if err := s.Replace(ctx, storetest.Seed()); err != nil {
		t.Fatal(err)
	}
	if err := s.Archive(ctx, "a"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	data, err := os.ReadFile(s.TasksPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"archived":true`) {
		t.Error("archived flag not persisted")
	}
	if got := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; got != 3 {
		t.Errorf("expected 3 lines on disk, got %d", got)
	}
}

func TestWritesLeaveNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	ctx := context.Background()
	if err := s.Replace(ctx, storetest.Seed()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestWritesKeepUndecodedLines(t *testing.T) {
	dir := t.TempDir()
	bad := `{"id":"b","name":"Typo","date":"2026-13-45"}`
	content := strings.Join([]string{
		`{"id":"a","name":"First","blockedBy":[]}`,
		bad,
		`{not json`,
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, TasksFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir, nil)
	ctx := context.Background()
	if err := s.PatchField(ctx, "a", model.FieldName, "A2"); err != nil {
		t.Fatalf("PatchField: %v", err)
	}
	if _, err := s.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Archive(ctx, "a"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	data, err := os.ReadFile(s.TasksPath())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines on disk, got %d:\n%s", len(lines), data)
	}
	if lines[1] != bad || lines[2] != `{not json` {
		t.Errorf("undecoded lines rewritten: %q, %q", lines[1], lines[2])
	}
	if !strings.Contains(lines[0], `"name":"A2"`) {
		t.Errorf("patch lost: %s", lines[0])
	}
}
