package store

import (
	"errors"
	"testing"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

func TestAPIError(t *testing.T) {
	err := error(&APIError{Status: 401, Message: "API token is invalid."})
	if got := err.Error(); got != "record store error 401: API token is invalid." {
		t.Errorf("Error() = %q", got)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("401 should not match ErrNotFound")
	}
	if !errors.Is(&APIError{Status: 404, Message: "gone"}, ErrNotFound) {
		t.Error("404 should match ErrNotFound")
	}
}

func TestNewTask(t *testing.T) {
	tk := NewTask("id-1", time.Date(2026, 7, 9, 23, 30, 0, 0, time.UTC))
	if tk.Name != "New Task" || tk.Date.String() != "2026-07-09" {
		t.Errorf("task = %+v", tk)
	}
	if tk.Priority != model.PriorityMedium || tk.Status != model.StatusNotStarted || tk.Milestone {
		t.Errorf("defaults = %+v", tk)
	}
	if tk.BlockedBy == nil {
		t.Error("BlockedBy should be empty, not nil")
	}
}

func TestApplyField(t *testing.T) {
	tk := model.Task{ID: "a", Name: "old"}
	if err := ApplyField(&tk, model.FieldOwner, "someone"); err != nil || tk.Owner != "" {
		t.Errorf("owner patch should be ignored: %+v %v", tk, err)
	}
	if err := ApplyField(&tk, model.FieldName, "new"); err != nil || tk.Name != "new" {
		t.Errorf("name patch failed: %+v %v", tk, err)
	}
	if err := ApplyField(&tk, model.FieldMilestone, "maybe"); err == nil {
		t.Error("expected error for bad milestone value")
	}
}

func TestResolvePhase(t *testing.T) {
	phases := []model.Phase{{ID: "p1", Name: "Build"}}
	if p, err := ResolvePhase(phases, "Build"); err != nil || p.ID != "p1" {
		t.Errorf("ResolvePhase = %+v, %v", p, err)
	}
	if _, err := ResolvePhase(phases, "Nope"); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("err = %v, want ErrUnknownPhase", err)
	}
}
