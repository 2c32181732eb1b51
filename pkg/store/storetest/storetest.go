// Package storetest checks that a store.Store honours the record store
// contract. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

// Factory returns a fresh store holding seed.
type Factory func(t *testing.T, seed model.Snapshot) store.Store

// Seed is the snapshot every contract test starts from.
func Seed() model.Snapshot {
	return model.Snapshot{
		Phases: []model.Phase{
			{ID: "p-build", Name: "Build", Date: model.MustDate("2026-03-01")},
			{ID: "p-launch", Name: "Launch", Date: model.MustDate("2026-06-01")},
		},
		Tasks: []model.Task{
			{
				ID: "a", Name: "Design", Date: model.MustDate("2026-03-10"), Category: "Build",
				Status: model.StatusDone, Priority: model.PriorityHigh, BlockedBy: []string{},
				Notes: "kickoff",
			},
			{
				ID: "b", Name: "Implement", Date: model.MustDate("2026-04-02"), Category: "Build",
				BlockedBy: []string{"a"},
			},
			{
				ID: "c", Name: "Ship", Date: model.MustDate("2026-06-15"), Category: "Launch",
				BlockedBy: []string{"b"}, Milestone: true,
			},
		},
	}
}

// Run executes the contract suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	fetch := func(t *testing.T, s store.Store) model.Snapshot {
		t.Helper()
		snap, err := s.FetchAll(ctx)
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		return snap
	}
	taskOf := func(t *testing.T, s store.Store, id string) model.Task {
		t.Helper()
		tk, ok := fetch(t, s).Task(id)
		if !ok {
			t.Fatalf("task %s missing after fetch", id)
		}
		return tk
	}

	t.Run("FetchAll", func(t *testing.T) {
		snap := fetch(t, newStore(t, Seed()))
		var ids []string
		for _, tk := range snap.Tasks {
			ids = append(ids, tk.ID)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
			t.Errorf("task order (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"Build", "Launch"}, snap.PhaseNames()); diff != "" {
			t.Errorf("phase order (-want +got):\n%s", diff)
		}
		if snap.Phases[0].Color != model.Palette[0] || snap.Phases[1].Color != model.Palette[1] {
			t.Errorf("phase colours not assigned by load order: %+v", snap.Phases)
		}
		b, _ := snap.Task("b")
		if b.Priority != model.PriorityMedium || b.Status != model.StatusNotStarted {
			t.Errorf("defaults not applied: %+v", b)
		}
		if b.Month != "April 2026" {
			t.Errorf("month = %q", b.Month)
		}
		if diff := cmp.Diff([]string{"a"}, b.BlockedBy); diff != "" {
			t.Errorf("blockedBy (-want +got):\n%s", diff)
		}
		c, _ := snap.Task("c")
		if !c.Milestone {
			t.Error("milestone flag lost")
		}
	})

	t.Run("PatchField", func(t *testing.T) {
		s := newStore(t, Seed())
		patches := []struct {
			field model.Field
			value string
		}{
			{model.FieldName, "Implement core"},
			{model.FieldDate, "2026-05-01"},
			{model.FieldPriority, "Low"},
			{model.FieldStatus, "In Progress"},
			{model.FieldNotes, "pairing"},
			{model.FieldEffort, "3.5"},
			{model.FieldMilestone, "true"},
		}
		for _, p := range patches {
			if err := s.PatchField(ctx, "b", p.field, p.value); err != nil {
				t.Fatalf("PatchField(%s): %v", p.field, err)
			}
		}
		b := taskOf(t, s, "b")
		if b.Name != "Implement core" || b.Date.String() != "2026-05-01" || b.Month != "May 2026" {
			t.Errorf("name/date not patched: %+v", b)
		}
		if b.Priority != model.PriorityLow || b.Status != model.StatusInProgress || b.Notes != "pairing" {
			t.Errorf("priority/status/notes not patched: %+v", b)
		}
		if b.Effort == nil || *b.Effort != 3.5 || !b.Milestone {
			t.Errorf("effort/milestone not patched: %+v", b)
		}

		if err := s.PatchField(ctx, "b", model.FieldEffort, ""); err != nil {
			t.Fatalf("clearing effort: %v", err)
		}
		if err := s.PatchField(ctx, "b", model.FieldDate, ""); err != nil {
			t.Fatalf("clearing date: %v", err)
		}
		b = taskOf(t, s, "b")
		if b.Effort != nil || !b.Date.IsZero() {
			t.Errorf("effort/date not cleared: %+v", b)
		}
	})

	t.Run("PatchFieldIgnoresUnrecognized", func(t *testing.T) {
		s := newStore(t, Seed())
		before := taskOf(t, s, "a")
		for _, f := range []model.Field{model.FieldOwner, model.FieldCategory, "bogus"} {
			if err := s.PatchField(ctx, "a", f, "x"); err != nil {
				t.Errorf("PatchField(%s) should be a no-op, got %v", f, err)
			}
		}
		if diff := cmp.Diff(before, taskOf(t, s, "a")); diff != "" {
			t.Errorf("unrecognized patch changed the task (-before +after):\n%s", diff)
		}
	})

	t.Run("PatchFieldErrors", func(t *testing.T) {
		s := newStore(t, Seed())
		if err := s.PatchField(ctx, "nope", model.FieldName, "x"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("unknown id: err = %v, want ErrNotFound", err)
		}
		if err := s.PatchField(ctx, "a", model.FieldEffort, "lots"); err == nil {
			t.Error("expected error for non-numeric effort")
		}
		if err := s.PatchField(ctx, "a", model.FieldDate, "someday"); err == nil {
			t.Error("expected error for malformed date")
		}
	})

	t.Run("PatchDependencies", func(t *testing.T) {
		s := newStore(t, Seed())
		if err := s.PatchDependencies(ctx, "c", []string{"a", "b"}); err != nil {
			t.Fatalf("PatchDependencies: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b"}, taskOf(t, s, "c").BlockedBy); diff != "" {
			t.Errorf("blockedBy (-want +got):\n%s", diff)
		}
		if err := s.PatchDependencies(ctx, "c", nil); err != nil {
			t.Fatalf("PatchDependencies(nil): %v", err)
		}
		if got := taskOf(t, s, "c").BlockedBy; len(got) != 0 {
			t.Errorf("blockedBy after clear = %v", got)
		}
		if err := s.PatchDependencies(ctx, "nope", []string{"a"}); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("unknown id: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("PatchCategory", func(t *testing.T) {
		s := newStore(t, Seed())
		phases := Seed().Phases
		if err := s.PatchCategory(ctx, "a", "Launch", phases); err != nil {
			t.Fatalf("PatchCategory: %v", err)
		}
		if got := taskOf(t, s, "a").Category; got != "Launch" {
			t.Errorf("category = %q, want Launch", got)
		}
		if err := s.PatchCategory(ctx, "a", "Nowhere", phases); !errors.Is(err, store.ErrUnknownPhase) {
			t.Errorf("err = %v, want ErrUnknownPhase", err)
		}
		if got := taskOf(t, s, "a").Category; got != "Launch" {
			t.Errorf("unknown phase changed category to %q", got)
		}
	})

	t.Run("Create", func(t *testing.T) {
		s := newStore(t, Seed())
		created, err := s.Create(ctx)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID == "" || created.Name != store.DefaultTaskName {
			t.Errorf("created = %+v", created)
		}
		if created.Priority != model.PriorityMedium || created.Status != model.StatusNotStarted || created.Milestone {
			t.Errorf("defaults wrong: %+v", created)
		}
		if created.Date.IsZero() {
			t.Error("new task should be dated today")
		}
		snap := fetch(t, s)
		if len(snap.Tasks) != 4 || snap.Tasks[3].ID != created.ID {
			t.Errorf("created task not appended: %d tasks", len(snap.Tasks))
		}
		second, err := s.Create(ctx)
		if err != nil {
			t.Fatalf("second Create: %v", err)
		}
		if second.ID == created.ID {
			t.Error("Create reused an id")
		}
	})

	t.Run("Archive", func(t *testing.T) {
		s := newStore(t, Seed())
		if err := s.Archive(ctx, "b"); err != nil {
			t.Fatalf("Archive: %v", err)
		}
		snap := fetch(t, s)
		if _, ok := snap.Task("b"); ok {
			t.Error("archived task still fetched")
		}
		if len(snap.Tasks) != 2 {
			t.Errorf("expected 2 tasks, got %d", len(snap.Tasks))
		}
		if err := s.Archive(ctx, "b"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("archiving twice: err = %v, want ErrNotFound", err)
		}
		if err := s.PatchField(ctx, "b", model.FieldName, "ghost"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("patching archived task: err = %v, want ErrNotFound", err)
		}
	})
}
