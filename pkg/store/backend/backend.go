// Package backend opens the record store named by the configuration.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/config"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/jsonl"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/memory"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/notion"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/sqlite"
)

// Options adjust Open beyond the config file.
type Options struct {
	// Demo ignores the configured backend and serves built-in sample data.
	Demo   bool
	Getenv func(string) string
	Logger *slog.Logger
}

// Opened is a ready store plus what the caller needs to manage it.
type Opened struct {
	Store   store.Store
	Backend string
	// WatchPaths are local files whose changes should trigger a reload.
	WatchPaths []string
	closer     io.Closer
}

// Close releases the store's resources.
func (o *Opened) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// Describe is a one-line summary for logs and the status bar.
func (o *Opened) Describe() string {
	if len(o.WatchPaths) == 0 {
		return o.Backend
	}
	return fmt.Sprintf("%s (%s)", o.Backend, o.WatchPaths[0])
}

// Resolve turns "auto" into a concrete backend. A path that is, or
// contains, a roadmap SQLite database selects sqlite; anything else jsonl.
func Resolve(cfg config.StoreConfig) (backend, path string) {
	if cfg.Backend != config.BackendAuto {
		return cfg.Backend, cfg.Path
	}
	if info, err := os.Stat(cfg.Path); err == nil {
		if !info.IsDir() && sqlite.IsRoadmapDB(cfg.Path) {
			return config.BackendSQLite, cfg.Path
		}
		if info.IsDir() {
			if db := filepath.Join(cfg.Path, sqlite.DefaultFile); sqlite.IsRoadmapDB(db) {
				return config.BackendSQLite, db
			}
		}
	}
	return config.BackendJSONL, cfg.Path
}

// Open builds the store.
func Open(cfg config.Config, opts Options) (*Opened, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if opts.Demo {
		return &Opened{Store: memory.NewDemo(), Backend: "demo"}, nil
	}

	backend, path := Resolve(cfg.Store)
	logger.Debug("opening record store", "backend", backend, "path", path)
	switch backend {
	case config.BackendMemory:
		return &Opened{Store: memory.New(model.Snapshot{}), Backend: backend}, nil

	case config.BackendJSONL:
		st := jsonl.New(path, logger)
		return &Opened{
			Store:      st,
			Backend:    backend,
			WatchPaths: []string{st.TasksPath(), st.PhasesPath()},
		}, nil

	case config.BackendSQLite:
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, sqlite.DefaultFile)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		st, err := sqlite.Open(path, cfg.Store.SQLiteDriver)
		if err != nil {
			return nil, err
		}
		return &Opened{Store: st, Backend: backend, WatchPaths: []string{path}, closer: st}, nil

	case config.BackendNotion:
		token := getenv(cfg.Notion.TokenEnv)
		if token == "" {
			return nil, fmt.Errorf("notion backend: $%s is not set", cfg.Notion.TokenEnv)
		}
		client, err := notion.New(notion.Config{
			TasksDB:  cfg.Notion.TasksDB,
			PhasesDB: cfg.Notion.PhasesDB,
			Token:    token,
			BaseURL:  cfg.Notion.BaseURL,
			Version:  cfg.Notion.Version,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return &Opened{Store: client, Backend: backend}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// replacer is implemented by the local stores that can be overwritten
// wholesale.
type replacer interface {
	Replace(ctx context.Context, snap model.Snapshot) error
}

// SeedDemo overwrites a local store with the demo roadmap.
func SeedDemo(ctx context.Context, o *Opened, now time.Time) error {
	r, ok := o.Store.(replacer)
	if !ok {
		return fmt.Errorf("backend %s cannot be seeded", o.Backend)
	}
	return r.Replace(ctx, memory.Demo(now))
}
