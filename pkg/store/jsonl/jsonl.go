// Package jsonl stores the roadmap as two line-delimited JSON files:
// tasks.jsonl and phases.jsonl inside a data directory (.roadmap by
// default). Archived tasks stay in the file flagged archived:true.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

const (
	TasksFile  = "tasks.jsonl"
	PhasesFile = "phases.jsonl"

	// Lines can hold long notes.
	maxLineBytes = 10 * 1024 * 1024
)

// Store is a file-backed record store. Every write rewrites the task file
// atomically.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex

	Now   func() time.Time
	NewID func() string
}

// New returns a store rooted at dir. The directory is created on first
// write; a missing task file loads as an empty roadmap.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger, Now: time.Now, NewID: uuid.NewString}
}

var _ store.Store = (*Store)(nil)

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// TasksPath returns the path of the task file.
func (s *Store) TasksPath() string { return filepath.Join(s.dir, TasksFile) }

// PhasesPath returns the path of the phase file.
func (s *Store) PhasesPath() string { return filepath.Join(s.dir, PhasesFile) }

// FetchAll implements store.Store.
func (s *Store) FetchAll(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	tasks, err := s.loadTasks()
	if err != nil {
		return model.Snapshot{}, err
	}
	phases, err := s.loadPhases()
	if err != nil {
		return model.Snapshot{}, err
	}
	model.AssignPhaseColors(phases)

	snap := model.Snapshot{Tasks: make([]model.Task, 0, len(tasks)), Phases: phases}
	for _, t := range tasks {
		if t.Archived {
			continue
		}
		t.Normalize()
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap, nil
}

// Replace overwrites both files with snap.
func (s *Store) Replace(ctx context.Context, snap model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeLines(s.PhasesPath(), snap.Phases); err != nil {
		return err
	}
	return writeLines(s.TasksPath(), snap.Tasks)
}

// PatchField implements store.Store.
func (s *Store) PatchField(ctx context.Context, taskID string, field model.Field, value string) error {
	if !field.IsPatchable() {
		return nil
	}
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		return store.ApplyField(t, field, value)
	})
}

// PatchDependencies implements store.Store.
func (s *Store) PatchDependencies(ctx context.Context, taskID string, blockedBy []string) error {
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		t.BlockedBy = append([]string{}, blockedBy...)
		return nil
	})
}

// PatchCategory implements store.Store.
func (s *Store) PatchCategory(ctx context.Context, taskID, phaseName string, phases []model.Phase) error {
	p, err := store.ResolvePhase(phases, phaseName)
	if err != nil {
		return err
	}
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		t.Category = p.Name
		return nil
	})
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	recs, err := readRecords[model.Task](s.TasksPath(), s.logger)
	if err != nil {
		return model.Task{}, err
	}
	t := store.NewTask(s.NewID(), s.Now())
	if err := writeRecords(s.TasksPath(), append(recs, record[model.Task]{value: t})); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// Archive implements store.Store.
func (s *Store) Archive(ctx context.Context, taskID string) error {
	return s.mutate(ctx, taskID, func(t *model.Task) error {
		t.Archived = true
		return nil
	})
}

// mutate loads the tasks, applies fn to the live task taskID and writes
// the file back.
func (s *Store) mutate(ctx context.Context, taskID string, fn func(*model.Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	recs, err := readRecords[model.Task](s.TasksPath(), s.logger)
	if err != nil {
		return err
	}
	for i := range recs {
		t := &recs[i].value
		if recs[i].raw != nil || t.ID != taskID || t.Archived {
			continue
		}
		if err := fn(t); err != nil {
			return err
		}
		return writeRecords(s.TasksPath(), recs)
	}
	return store.NotFound(taskID)
}

func (s *Store) loadTasks() ([]model.Task, error) {
	return readLines[model.Task](s.TasksPath(), s.logger)
}

func (s *Store) loadPhases() ([]model.Phase, error) {
	return readLines[model.Phase](s.PhasesPath(), s.logger)
}

// record is one line of a data file. Lines that did not decode keep their
// raw bytes so a rewrite puts them back untouched.
type record[T any] struct {
	value T
	raw   []byte
}

// readLines decodes one JSON value per line. Malformed lines are skipped
// so one bad record does not hide the rest. A missing file is empty.
func readLines[T any](path string, logger *slog.Logger) ([]T, error) {
	recs, err := readRecords[T](path, logger)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if r.raw == nil {
			out = append(out, r.value)
		}
	}
	return out, nil
}

func readRecords[T any](path string, logger *slog.Logger) ([]record[T], error) {
	out := []record[T]{}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			logger.Warn("skipping malformed record", "file", filepath.Base(path), "line", lineNum, "error", err)
			out = append(out, record[T]{raw: bytes.Clone(line)})
			continue
		}
		out = append(out, record[T]{value: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// writeLines replaces path with one JSON line per value.
func writeLines[T any](path string, values []T) error {
	recs := make([]record[T], len(values))
	for i, v := range values {
		recs[i].value = v
	}
	return writeRecords(path, recs)
}

// writeRecords replaces path via a temp file and rename. Undecoded lines
// are written back verbatim.
func writeRecords[T any](path string, recs []record[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range recs {
		if r.raw != nil {
			w.Write(r.raw)
			w.WriteByte('\n')
			continue
		}
		if err := enc.Encode(r.value); err != nil {
			tmp.Close()
			return fmt.Errorf("encode record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
