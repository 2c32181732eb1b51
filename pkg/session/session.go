// Package session owns the loaded roadmap: it applies edits optimistically,
// forwards them to the record store and reloads everything when a write
// fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

// State is a point-in-time view of the session.
type State struct {
	Snapshot model.Snapshot
	// Loading is true while the most recent load is in flight.
	Loading bool
	// LoadErr blocks data views until a load succeeds.
	LoadErr error
	// Saving is true while any write is in flight.
	Saving bool
	// LastWriteErr is the most recent write failure, cleared by the next
	// successful write.
	LastWriteErr error
	// Generation identifies the load whose data is shown.
	Generation uint64
}

// Ready reports whether data can be rendered.
func (s State) Ready() bool {
	return !s.Loading && s.LoadErr == nil && s.Generation > 0
}

// Session serialises access to the state. Store calls run without the
// lock held so a slow store never blocks readers.
type Session struct {
	store  store.Store
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	pending   int
	loadGen   uint64
	listeners []func(State)
}

// New returns an unloaded session; call Reload to fetch data.
func New(st store.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{store: st, logger: logger}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Snapshot = s.state.Snapshot.Clone()
	return st
}

// OnChange registers fn to run after every state change. fn runs on the
// goroutine that caused the change and must not call back into the
// session synchronously.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// commit applies fn under the lock and notifies listeners.
func (s *Session) commit(fn func()) {
	s.mu.Lock()
	fn()
	st := s.snapshotLocked()
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
}

// Reload fetches a full snapshot. Only the most recently started load is
// applied; an older one that finishes later is dropped. On failure no
// stale data stays visible.
func (s *Session) Reload(ctx context.Context) error {
	var gen uint64
	s.commit(func() {
		s.loadGen++
		gen = s.loadGen
		s.state.Loading = true
		s.state.LoadErr = nil
	})

	snap, err := s.store.FetchAll(ctx)

	applied := false
	s.commit(func() {
		if gen != s.loadGen {
			return
		}
		applied = true
		s.state.Loading = false
		s.state.Generation = gen
		if err != nil {
			s.state.LoadErr = err
			s.state.Snapshot = model.Snapshot{}
			return
		}
		s.state.Snapshot = snap
	})
	switch {
	case !applied:
		s.logger.Debug("discarding superseded load", "generation", gen)
	case err != nil:
		s.logger.Error("load failed", "error", err)
	default:
		s.logger.Info("roadmap loaded", "tasks", len(snap.Tasks), "phases", len(snap.Phases), "generation", gen)
	}
	return err
}

func (s *Session) beginWrite() {
	s.commit(func() {
		s.pending++
		s.state.Saving = true
	})
}

func (s *Session) endWrite(err error) {
	s.commit(func() {
		s.pending--
		s.state.Saving = s.pending > 0
		s.state.LastWriteErr = err
	})
}

// writeFailed logs err and reloads to drop the optimistic change.
func (s *Session) writeFailed(ctx context.Context, op, taskID string, err error) {
	s.logger.Warn("write failed, reloading", "op", op, "task", taskID, "error", err)
	if rerr := s.Reload(ctx); rerr != nil {
		s.logger.Warn("reload after write failure failed", "error", rerr)
	}
}

// Update edits one field. The local task changes immediately; the store
// call follows, and a failure triggers a full reload. blockedBy takes a
// comma-separated id list; category takes a phase name.
func (s *Session) Update(ctx context.Context, taskID string, field model.Field, value string) error {
	if field == model.FieldBlockedBy {
		return s.UpdateDependencies(ctx, taskID, splitIDs(value))
	}

	var phases []model.Phase
	var applyErr error
	s.commit(func() {
		i := s.state.Snapshot.TaskIndex(taskID)
		if i < 0 {
			applyErr = store.NotFound(taskID)
			return
		}
		if field == model.FieldCategory {
			if _, err := store.ResolvePhase(s.state.Snapshot.Phases, value); err != nil {
				applyErr = err
				return
			}
			phases = append([]model.Phase{}, s.state.Snapshot.Phases...)
		}
		updated, err := s.state.Snapshot.Tasks[i].WithField(field, value)
		if err != nil {
			applyErr = err
			return
		}
		s.state.Snapshot.Tasks[i] = updated
	})
	if applyErr != nil {
		return applyErr
	}

	s.beginWrite()
	var err error
	if field == model.FieldCategory {
		err = s.store.PatchCategory(ctx, taskID, value, phases)
	} else {
		err = s.store.PatchField(ctx, taskID, field, value)
	}
	s.endWrite(err)
	if err != nil {
		s.writeFailed(ctx, "patch "+string(field), taskID, err)
		return fmt.Errorf("update %s of %s: %w", field, taskID, err)
	}
	return nil
}

// UpdateDependencies replaces a task's blockedBy list.
func (s *Session) UpdateDependencies(ctx context.Context, taskID string, blockedBy []string) error {
	ids := append([]string{}, blockedBy...)
	var applyErr error
	s.commit(func() {
		i := s.state.Snapshot.TaskIndex(taskID)
		if i < 0 {
			applyErr = store.NotFound(taskID)
			return
		}
		s.state.Snapshot.Tasks[i].BlockedBy = append([]string{}, ids...)
	})
	if applyErr != nil {
		return applyErr
	}

	s.beginWrite()
	err := s.store.PatchDependencies(ctx, taskID, ids)
	s.endWrite(err)
	if err != nil {
		s.writeFailed(ctx, "patch dependencies", taskID, err)
		return fmt.Errorf("update dependencies of %s: %w", taskID, err)
	}
	return nil
}

// Add creates a task and appends it once the store confirms. A failed
// create reloads like any other failed write.
func (s *Session) Add(ctx context.Context) (model.Task, error) {
	s.beginWrite()
	t, err := s.store.Create(ctx)
	s.endWrite(err)
	if err != nil {
		s.writeFailed(ctx, "create", "", err)
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	t.Normalize()
	s.commit(func() {
		s.state.Snapshot.Tasks = append(s.state.Snapshot.Tasks, t.Clone())
	})
	return t, nil
}

// Delete removes a task locally, along with every reference to it, then
// archives it in the store.
func (s *Session) Delete(ctx context.Context, taskID string) error {
	found := false
	s.commit(func() {
		tasks := s.state.Snapshot.Tasks
		kept := tasks[:0:0]
		for _, t := range tasks {
			if t.ID == taskID {
				found = true
				continue
			}
			if t.DependsOn(taskID) {
				t = t.Clone()
				t.BlockedBy = without(t.BlockedBy, taskID)
			}
			kept = append(kept, t)
		}
		s.state.Snapshot.Tasks = kept
	})
	if !found {
		return store.NotFound(taskID)
	}

	s.beginWrite()
	err := s.store.Archive(ctx, taskID)
	s.endWrite(err)
	if err != nil {
		s.writeFailed(ctx, "archive", taskID, err)
		return fmt.Errorf("delete %s: %w", taskID, err)
	}
	return nil
}

// IsWriteError reports whether err came from a failed write, which the UI
// shows unobtrusively instead of blocking.
func IsWriteError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, store.ErrUnknownPhase) && !errors.Is(err, context.Canceled)
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func splitIDs(value string) []string {
	ids := []string{}
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
