package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Task is a roadmap milestone or work item.
type Task struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Date        Date     `json:"date"`
	StartDate   Date     `json:"startDate"`
	EndDate     Date     `json:"endDate"`
	Month       string   `json:"month,omitempty"`
	Category    string   `json:"category"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	BlockedBy   []string `json:"blockedBy"`
	Owner       string   `json:"owner,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Description string   `json:"description,omitempty"`
	Effort      *float64 `json:"effort,omitempty"`
	Milestone   bool     `json:"milestone,omitempty"`
	Archived    bool     `json:"archived,omitempty"`
}

// Clone creates a deep copy of the task
func (t Task) Clone() Task {
	clone := t
	if t.BlockedBy != nil {
		clone.BlockedBy = make([]string, len(t.BlockedBy))
		copy(clone.BlockedBy, t.BlockedBy)
	}
	if t.Effort != nil {
		v := *t.Effort
		clone.Effort = &v
	}
	return clone
}

// Validate checks if the task data is logically valid
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %q", t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %q", t.Priority)
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("end date %s is before start date %s", t.EndDate, t.StartDate)
	}
	return nil
}

// Normalize fills documented defaults for fields a record source may leave
// empty: Status=Not Started, Priority=Medium, an empty (non-nil) BlockedBy,
// and the Month label derived from Date.
func (t *Task) Normalize() {
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.BlockedBy == nil {
		t.BlockedBy = []string{}
	}
	t.Month = t.Date.MonthLabel()
}

// Start returns StartDate, defaulting to Date.
func (t Task) Start() Date {
	if !t.StartDate.IsZero() {
		return t.StartDate
	}
	return t.Date
}

// End returns EndDate, defaulting to Date.
func (t Task) End() Date {
	if !t.EndDate.IsZero() {
		return t.EndDate
	}
	return t.Date
}

// DependsOn reports whether id is a direct predecessor of the task.
func (t Task) DependsOn(id string) bool {
	for _, dep := range t.BlockedBy {
		if dep == id {
			return true
		}
	}
	return false
}

// WithField returns a copy of the task with one scalar field replaced.
// Values use their text form: dates as YYYY-MM-DD (empty clears), effort as
// a number (empty clears), milestone as a boolean. Fields that are not
// scalar-patchable leave the task unchanged.
func (t Task) WithField(field Field, value string) (Task, error) {
	out := t.Clone()
	switch field {
	case FieldName:
		out.Name = value
	case FieldDate:
		d, err := ParseDate(value)
		if err != nil {
			return t, err
		}
		out.Date = d
		out.Month = d.MonthLabel()
	case FieldPriority:
		out.Priority = Priority(value)
	case FieldStatus:
		out.Status = Status(value)
	case FieldNotes:
		out.Notes = value
	case FieldEffort:
		effort, err := ParseEffort(value)
		if err != nil {
			return t, err
		}
		out.Effort = effort
	case FieldMilestone:
		b, err := ParseMilestone(value)
		if err != nil {
			return t, err
		}
		out.Milestone = b
	case FieldOwner:
		out.Owner = value
	case FieldCategory:
		out.Category = value
	}
	return out, nil
}

// ParseEffort converts the text form of the effort field. Empty clears it.
func ParseEffort(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid effort %q: %w", value, err)
	}
	return &f, nil
}

// ParseMilestone converts the text form of the milestone flag. Empty is false.
func ParseMilestone(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid milestone flag %q: %w", value, err)
	}
	return b, nil
}

// Status represents the progress state of a task
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusWaiting    Status = "Waiting / Blocked"
	StatusDone       Status = "Done"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusWaiting, StatusDone}

// IsValid returns true if the status is a recognized value
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusWaiting, StatusDone:
		return true
	}
	return false
}

// IsDone returns true if the status represents finished work
func (s Status) IsDone() bool {
	return s == StatusDone
}

// Priority ranks a task
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists every priority from highest to lowest.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// IsValid returns true if the priority is a recognized value
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Field names a task attribute that can be edited.
type Field string

const (
	FieldName        Field = "name"
	FieldDate        Field = "date"
	FieldPriority    Field = "priority"
	FieldStatus      Field = "status"
	FieldNotes       Field = "notes"
	FieldEffort      Field = "effort"
	FieldMilestone   Field = "milestone"
	FieldOwner       Field = "owner"
	FieldCategory    Field = "category"
	FieldBlockedBy   Field = "blockedBy"
	FieldDescription Field = "description"
)

// IsPatchable reports whether a record store accepts the field through a
// plain field patch. Dependencies and the phase link have dedicated calls.
func (f Field) IsPatchable() bool {
	switch f {
	case FieldName, FieldDate, FieldPriority, FieldStatus, FieldNotes, FieldEffort, FieldMilestone:
		return true
	}
	return false
}
