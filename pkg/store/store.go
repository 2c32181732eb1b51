// Package store defines the record store contract the roadmap core reads
// from and writes to. Implementations live in subpackages: memory, jsonl,
// sqlite and notion.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Store loads and edits the task list. Every call may fail; callers treat
// a failed write as a signal to reload.
type Store interface {
	// FetchAll returns every non-archived task plus all phases.
	FetchAll(ctx context.Context) (model.Snapshot, error)
	// PatchField updates one scalar field. Fields outside the recognized
	// set are a no-op.
	PatchField(ctx context.Context, taskID string, field model.Field, value string) error
	// PatchDependencies replaces the full blockedBy list.
	PatchDependencies(ctx context.Context, taskID string, blockedBy []string) error
	// PatchCategory links the task to the phase named phaseName.
	PatchCategory(ctx context.Context, taskID, phaseName string, phases []model.Phase) error
	// Create adds a task with default values and returns it.
	Create(ctx context.Context) (model.Task, error)
	// Archive soft-deletes a task.
	Archive(ctx context.Context, taskID string) error
}

var (
	// ErrNotFound is returned when a task id does not exist (or is archived).
	ErrNotFound = errors.New("task not found")
	// ErrUnknownPhase is returned by PatchCategory for a name that matches
	// no phase.
	ErrUnknownPhase = errors.New("unknown phase")
)

// APIError is a non-success response from a remote record store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("record store error %d: %s", e.Status, e.Message)
}

// Unwrap maps a 404 onto ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Default values for new tasks.
const (
	DefaultTaskName = "New Task"
)

// NewTask returns a task carrying the creation defaults, dated today.
func NewTask(id string, now time.Time) model.Task {
	t := model.Task{
		ID:        id,
		Name:      DefaultTaskName,
		Date:      model.DateOf(now),
		Priority:  model.PriorityMedium,
		Status:    model.StatusNotStarted,
		Milestone: false,
	}
	t.Normalize()
	return t
}

// ApplyField applies a PatchField call to t. Unrecognized fields leave t
// untouched and return nil.
func ApplyField(t *model.Task, field model.Field, value string) error {
	if !field.IsPatchable() {
		return nil
	}
	updated, err := t.WithField(field, value)
	if err != nil {
		return err
	}
	*t = updated
	return nil
}

// ResolvePhase finds the phase named name.
func ResolvePhase(phases []model.Phase, name string) (model.Phase, error) {
	p, ok := model.FindPhase(phases, name)
	if !ok {
		return model.Phase{}, fmt.Errorf("%w: %q", ErrUnknownPhase, name)
	}
	return p, nil
}

// NotFound wraps ErrNotFound with the offending id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
