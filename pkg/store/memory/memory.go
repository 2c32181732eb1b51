// Package memory is an in-process record store. It backs --demo and the
// session tests, which use its failure injection.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

// Op names one store call for failure injection.
type Op string

const (
	OpFetchAll          Op = "fetchAll"
	OpPatchField        Op = "patchField"
	OpPatchDependencies Op = "patchDependencies"
	OpPatchCategory     Op = "patchCategory"
	OpCreate            Op = "create"
	OpArchive           Op = "archive"
)

// Store keeps a snapshot in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	tasks    []model.Task
	archived map[string]bool
	phases   []model.Phase
	failNext map[Op][]error
	calls    map[Op]int

	// Now and NewID are replaceable for deterministic tests.
	Now   func() time.Time
	NewID func() string
}

// New returns a store holding a copy of seed.
func New(seed model.Snapshot) *Store {
	s := &Store{
		archived: make(map[string]bool),
		failNext: make(map[Op][]error),
		calls:    make(map[Op]int),
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
	snap := seed.Clone()
	s.tasks = snap.Tasks
	s.phases = snap.Phases
	return s
}

var _ store.Store = (*Store)(nil)

// FailNext makes the next call of op return err. Calls queue up in order.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = append(s.failNext[op], err)
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records the call and pops an injected failure. Caller holds mu.
func (s *Store) enter(op Op) error {
	s.calls[op]++
	if q := s.failNext[op]; len(q) > 0 {
		s.failNext[op] = q[1:]
		return q[0]
	}
	return nil
}

func (s *Store) find(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id && !s.archived[id] {
			return i
		}
	}
	return -1
}

// FetchAll implements store.Store.
func (s *Store) FetchAll(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpFetchAll); err != nil {
		return model.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	out := model.Snapshot{Phases: make([]model.Phase, len(s.phases))}
	copy(out.Phases, s.phases)
	model.AssignPhaseColors(out.Phases)
	for _, t := range s.tasks {
		if s.archived[t.ID] {
			continue
		}
		c := t.Clone()
		c.Normalize()
		out.Tasks = append(out.Tasks, c)
	}
	if out.Tasks == nil {
		out.Tasks = []model.Task{}
	}
	return out, nil
}

// PatchField implements store.Store.
func (s *Store) PatchField(ctx context.Context, taskID string, field model.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPatchField); err != nil {
		return err
	}
	i := s.find(taskID)
	if i < 0 {
		return store.NotFound(taskID)
	}
	return store.ApplyField(&s.tasks[i], field, value)
}

// PatchDependencies implements store.Store.
func (s *Store) PatchDependencies(ctx context.Context, taskID string, blockedBy []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPatchDependencies); err != nil {
		return err
	}
	i := s.find(taskID)
	if i < 0 {
		return store.NotFound(taskID)
	}
	s.tasks[i].BlockedBy = append([]string{}, blockedBy...)
	return nil
}

// PatchCategory implements store.Store.
func (s *Store) PatchCategory(ctx context.Context, taskID, phaseName string, phases []model.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPatchCategory); err != nil {
		return err
	}
	i := s.find(taskID)
	if i < 0 {
		return store.NotFound(taskID)
	}
	p, err := store.ResolvePhase(phases, phaseName)
	if err != nil {
		return err
	}
	s.tasks[i].Category = p.Name
	return nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreate); err != nil {
		return model.Task{}, err
	}
	t := store.NewTask(s.NewID(), s.Now())
	s.tasks = append(s.tasks, t)
	return t.Clone(), nil
}

// Archive implements store.Store.
func (s *Store) Archive(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpArchive); err != nil {
		return err
	}
	if s.find(taskID) < 0 {
		return store.NotFound(taskID)
	}
	s.archived[taskID] = true
	return nil
}
