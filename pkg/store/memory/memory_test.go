package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, seed model.Snapshot) store.Store {
		return New(seed)
	})
}

func TestFailNext(t *testing.T) {
	s := New(storetest.Seed())
	boom := errors.New("boom")
	s.FailNext(OpPatchField, boom)

	ctx := context.Background()
	if err := s.PatchField(ctx, "a", model.FieldName, "x"); !errors.Is(err, boom) {
		t.Fatalf("first call err = %v, want boom", err)
	}
	if err := s.PatchField(ctx, "a", model.FieldName, "x"); err != nil {
		t.Fatalf("second call should succeed, got %v", err)
	}
	if s.Calls(OpPatchField) != 2 {
		t.Errorf("Calls = %d, want 2", s.Calls(OpPatchField))
	}
}

func TestCreateUsesClockAndIDs(t *testing.T) {
	s := New(model.Snapshot{})
	s.Now = func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) }
	s.NewID = func() string { return "fixed" }

	tk, err := s.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.ID != "fixed" || tk.Date.String() != "2026-03-04" || tk.Month != "March 2026" {
		t.Errorf("created = %+v", tk)
	}
}

func TestSeedIsCopied(t *testing.T) {
	seed := storetest.Seed()
	s := New(seed)
	seed.Tasks[0].Name = "mutated"

	snap, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Tasks[0].Name == "mutated" {
		t.Error("store aliases its seed")
	}
}

func TestDemoIsConsistent(t *testing.T) {
	snap := Demo(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	phases := make(map[string]bool)
	for _, p := range snap.Phases {
		phases[p.Name] = true
	}
	ids := make(map[string]bool)
	for _, tk := range snap.Tasks {
		if ids[tk.ID] {
			t.Errorf("duplicate id %s", tk.ID)
		}
		ids[tk.ID] = true
		if !phases[tk.Category] {
			t.Errorf("task %s has unknown phase %q", tk.ID, tk.Category)
		}
		if err := tk.Validate(); err != nil {
			t.Errorf("task %s invalid: %v", tk.ID, err)
		}
	}
	for _, tk := range snap.Tasks {
		for _, dep := range tk.BlockedBy {
			if !ids[dep] {
				t.Errorf("task %s depends on unknown %s", tk.ID, dep)
			}
		}
	}
}
