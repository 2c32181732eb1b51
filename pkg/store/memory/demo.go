package memory

import (
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Demo returns a sample roadmap whose first phase starts in the month of
// now. It exercises diamonds, cross-phase edges, ranges and an undated task.
func Demo(now time.Time) model.Snapshot {
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	day := func(month, d int) model.Date {
		return model.DateOf(base.AddDate(0, month, d-1))
	}
	effort := func(v float64) *float64 { return &v }

	phases := []model.Phase{
		{ID: "ph-discovery", Name: "Discovery", Description: "Research and scoping", Date: day(0, 1)},
		{ID: "ph-build", Name: "Build", Description: "Core implementation", Date: day(1, 1)},
		{ID: "ph-beta", Name: "Beta", Description: "Private beta with design partners", Date: day(3, 1)},
		{ID: "ph-launch", Name: "Launch", Description: "Public release", Date: day(5, 1)},
	}

	tasks := []model.Task{
		{ID: "t-interviews", Name: "Customer interviews", Category: "Discovery", Date: day(0, 12),
			StartDate: day(0, 2), EndDate: day(0, 12), Status: model.StatusDone, Priority: model.PriorityHigh,
			Owner: "Priya", Effort: effort(3)},
		{ID: "t-market", Name: "Market sizing", Category: "Discovery", Date: day(0, 18),
			Status: model.StatusDone, Priority: model.PriorityMedium, Owner: "Sam"},
		{ID: "t-prd", Name: "Product requirements", Category: "Discovery", Date: day(0, 28),
			BlockedBy: []string{"t-interviews", "t-market"}, Status: model.StatusDone, Priority: model.PriorityHigh,
			Milestone: true, Notes: "Signed off by **leadership**."},
		{ID: "t-arch", Name: "Architecture review", Category: "Build", Date: day(1, 8),
			BlockedBy: []string{"t-prd"}, Status: model.StatusInProgress, Priority: model.PriorityHigh, Effort: effort(2)},
		{ID: "t-api", Name: "Public API", Category: "Build", Date: day(2, 3),
			StartDate: day(1, 10), EndDate: day(2, 3), BlockedBy: []string{"t-arch"},
			Status: model.StatusInProgress, Priority: model.PriorityHigh, Effort: effort(8)},
		{ID: "t-storage", Name: "Storage layer", Category: "Build", Date: day(1, 26),
			BlockedBy: []string{"t-arch"}, Status: model.StatusNotStarted, Priority: model.PriorityMedium, Effort: effort(5)},
		{ID: "t-ui", Name: "Web client", Category: "Build", Date: day(2, 20),
			BlockedBy: []string{"t-api"}, Status: model.StatusNotStarted, Priority: model.PriorityMedium, Effort: effort(8)},
		{ID: "t-integration", Name: "Integration tests", Category: "Build", Date: day(2, 25),
			BlockedBy: []string{"t-api", "t-storage"}, Status: model.StatusWaiting, Priority: model.PriorityMedium},
		{ID: "t-partners", Name: "Recruit design partners", Category: "Beta", Date: day(2, 15),
			BlockedBy: []string{"t-prd"}, Status: model.StatusInProgress, Priority: model.PriorityLow, Owner: "Sam"},
		{ID: "t-beta", Name: "Private beta", Category: "Beta", Date: day(3, 10),
			BlockedBy: []string{"t-ui", "t-integration", "t-partners"}, Status: model.StatusNotStarted,
			Priority: model.PriorityHigh, Milestone: true},
		{ID: "t-feedback", Name: "Beta feedback triage", Category: "Beta", Date: day(4, 5),
			BlockedBy: []string{"t-beta"}, Status: model.StatusNotStarted, Priority: model.PriorityMedium},
		{ID: "t-docs", Name: "Documentation", Category: "Launch", Date: day(4, 20),
			BlockedBy: []string{"t-api"}, Status: model.StatusNotStarted, Priority: model.PriorityLow},
		{ID: "t-pricing", Name: "Pricing page", Category: "Launch",
			Status: model.StatusNotStarted, Priority: model.PriorityLow, Notes: "Waiting on finance."},
		{ID: "t-ga", Name: "General availability", Category: "Launch", Date: day(5, 15),
			BlockedBy: []string{"t-feedback", "t-docs"}, Status: model.StatusNotStarted,
			Priority: model.PriorityHigh, Milestone: true},
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	model.AssignPhaseColors(phases)
	return model.Snapshot{Tasks: tasks, Phases: phases}
}

// NewDemo returns a store seeded with Demo(time.Now()).
func NewDemo() *Store {
	return New(Demo(time.Now()))
}
