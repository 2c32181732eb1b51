package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/config"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/jsonl"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/memory"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/notion"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/sqlite"
)

func TestResolveAuto(t *testing.T) {
	dir := t.TempDir()
	backend, path := Resolve(config.StoreConfig{Backend: config.BackendAuto, Path: dir})
	if backend != config.BackendJSONL || path != dir {
		t.Fatalf("empty dir resolved to %s %s, want jsonl", backend, path)
	}

	dbPath := filepath.Join(dir, sqlite.DefaultFile)
	st, err := sqlite.Open(dbPath, sqlite.DriverPure)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	st.Close()

	backend, path = Resolve(config.StoreConfig{Backend: config.BackendAuto, Path: dir})
	if backend != config.BackendSQLite || path != dbPath {
		t.Errorf("dir with db resolved to %s %s", backend, path)
	}
	backend, path = Resolve(config.StoreConfig{Backend: config.BackendAuto, Path: dbPath})
	if backend != config.BackendSQLite || path != dbPath {
		t.Errorf("db file resolved to %s %s", backend, path)
	}
	backend, _ = Resolve(config.StoreConfig{Backend: config.BackendNotion})
	if backend != config.BackendNotion {
		t.Errorf("explicit backend rewritten to %s", backend)
	}
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		opts    Options
		check   func(t *testing.T, o *Opened)
		wantErr string
	}{
		{
			name: "demo",
			opts: Options{Demo: true},
			check: func(t *testing.T, o *Opened) {
				if _, ok := o.Store.(*memory.Store); !ok {
					t.Errorf("store = %T", o.Store)
				}
			},
		},
		{
			name:   "jsonl",
			mutate: func(c *config.Config) { c.Store.Backend = config.BackendJSONL; c.Store.Path = dir },
			check: func(t *testing.T, o *Opened) {
				if _, ok := o.Store.(*jsonl.Store); !ok {
					t.Errorf("store = %T", o.Store)
				}
				if len(o.WatchPaths) != 2 {
					t.Errorf("WatchPaths = %v", o.WatchPaths)
				}
			},
		},
		{
			name: "sqlite dir",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendSQLite
				c.Store.Path = filepath.Join(dir, "nested")
			},
			check: func(t *testing.T, o *Opened) {
				if _, ok := o.Store.(*sqlite.Store); !ok {
					t.Errorf("store = %T", o.Store)
				}
				if want := filepath.Join(dir, "nested", sqlite.DefaultFile); o.WatchPaths[0] != want {
					t.Errorf("WatchPaths = %v, want %s", o.WatchPaths, want)
				}
			},
		},
		{
			name: "notion",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendNotion
				c.Notion.TasksDB, c.Notion.PhasesDB = "t", "p"
			},
			opts: Options{Getenv: func(k string) string {
				if k == "NOTION_TOKEN" {
					return "secret"
				}
				return ""
			}},
			check: func(t *testing.T, o *Opened) {
				if _, ok := o.Store.(*notion.Client); !ok {
					t.Errorf("store = %T", o.Store)
				}
			},
		},
		{
			name: "notion without token",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendNotion
				c.Notion.TasksDB, c.Notion.PhasesDB = "t", "p"
			},
			opts:    Options{Getenv: func(string) string { return "" }},
			wantErr: "NOTION_TOKEN",
		},
		{
			name:    "unknown",
			mutate:  func(c *config.Config) { c.Store.Backend = "postgres" },
			wantErr: "unknown store backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			o, err := Open(cfg, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer o.Close()
			tt.check(t, o)
		})
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store.Backend = config.BackendJSONL
	cfg.Store.Path = t.TempDir()
	o, err := Open(cfg, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := SeedDemo(ctx, o, now); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	snap, err := o.Store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	want := memory.Demo(now)
	if len(snap.Tasks) != len(want.Tasks) || len(snap.Phases) != len(want.Phases) {
		t.Errorf("seeded %d tasks / %d phases, want %d / %d",
			len(snap.Tasks), len(snap.Phases), len(want.Tasks), len(want.Phases))
	}

	demo, _ := Open(cfg, Options{Demo: true})
	if err := SeedDemo(ctx, demo, now); err == nil {
		t.Error("memory demo store should not be seedable")
	}
}
