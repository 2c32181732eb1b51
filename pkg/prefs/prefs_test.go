package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

func TestLoadEmptyGivesDefaults(t *testing.T) {
	s, err := Load(NewMemory())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), s); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadMemory(t *testing.T) {
	kv := NewMemory()
	want := Settings{
		View:          ViewDepMap,
		Phase:         "Build",
		NodeMode:      timeline.NodeRange,
		HighlightMode: highlight.ChainDirect,
		Fuzzy:         true,
	}
	if err := Save(kv, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	kv := NewMemory()
	kv.Set(KeyView, "kanban")
	kv.Set(KeyNodeMode, "bars")
	kv.Set(KeyHighlightMode, "everything")
	kv.Set(KeyPhase, "Launch")

	got, err := Load(kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.Phase = "Launch"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".roadmap", "prefs.yaml")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	s := Default()
	s.View = ViewDepMap
	if err := Save(f, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := Load(reopened)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.View != ViewDepMap {
		t.Errorf("View = %q, want %q", got.View, ViewDepMap)
	}
	if diff := cmp.Diff([]string{KeyFuzzy, KeyHighlightMode, KeyNodeMode, KeyPhase, KeyView}, reopened.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
