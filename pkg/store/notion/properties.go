package notion

import (
	"strings"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Property names in the two databases.
const (
	propTaskName    = "Task Name"
	propDeadline    = "Deadline"
	propLinkedPhase = "Linked Phase"
	propNotes       = "Notes"
	propPriority    = "Priority"
	propStatus      = "Status"
	propOwner       = "Owner"
	propComplexity  = "Complexity"
	propMilestone   = "Milestone"
	propDependsOn   = "Depends on"

	propPhaseName        = "Phase Name"
	propPhaseDescription = "Phase Description"
	propPhaseDates       = "Dates"
)

type page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	Properties map[string]property `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type property struct {
	Title    []richText `json:"title"`
	RichText []richText `json:"rich_text"`
	Select   *named     `json:"select"`
	Status   *named     `json:"status"`
	Date     *dateValue `json:"date"`
	Checkbox bool       `json:"checkbox"`
	Number   *float64   `json:"number"`
	Relation []named    `json:"relation"`
	People   []named    `json:"people"`
}

func plain(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

func (p page) title(name string) string { return plain(p.Properties[name].Title) }
func (p page) text(name string) string  { return plain(p.Properties[name].RichText) }

func (p page) selectName(name string) string {
	if s := p.Properties[name].Select; s != nil {
		return s.Name
	}
	return ""
}

func (p page) status(name string) string {
	if s := p.Properties[name].Status; s != nil {
		return s.Name
	}
	return ""
}

func (p page) date(name string) dateValue {
	if d := p.Properties[name].Date; d != nil {
		return *d
	}
	return dateValue{}
}

func (p page) relationIDs(name string) []string {
	ids := []string{}
	for _, r := range p.Properties[name].Relation {
		ids = append(ids, r.ID)
	}
	return ids
}

func (p page) people(name string) string {
	var names []string
	for _, person := range p.Properties[name].People {
		names = append(names, person.Name)
	}
	return strings.Join(names, ", ")
}

// toTask converts a task page. Unparseable dates are treated as absent.
func toTask(p page, phaseNames map[string]string) model.Task {
	t := model.Task{
		ID:        p.ID,
		Name:      p.title(propTaskName),
		Notes:     p.text(propNotes),
		Priority:  model.Priority(p.selectName(propPriority)),
		Status:    model.Status(p.status(propStatus)),
		Owner:     p.people(propOwner),
		Effort:    p.Properties[propComplexity].Number,
		Milestone: p.Properties[propMilestone].Checkbox,
		BlockedBy: p.relationIDs(propDependsOn),
	}
	if linked := p.relationIDs(propLinkedPhase); len(linked) > 0 {
		t.Category = phaseNames[linked[0]]
	}
	d := p.date(propDeadline)
	t.Date, _ = model.ParseDate(d.Start)
	if d.End != "" {
		t.StartDate = t.Date
		t.EndDate, _ = model.ParseDate(d.End)
	}
	t.Normalize()
	return t
}

func toPhase(p page) model.Phase {
	ph := model.Phase{
		ID:          p.ID,
		Name:        p.title(propPhaseName),
		Description: p.text(propPhaseDescription),
	}
	ph.Date, _ = model.ParseDate(p.date(propPhaseDates).Start)
	return ph
}

func title(s string) map[string]any {
	return map[string]any{"title": []any{map[string]any{"text": map[string]string{"content": s}}}}
}

func relation(ids ...string) map[string]any {
	refs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]string{"id": id})
	}
	return map[string]any{"relation": refs}
}

// fieldProperties builds the properties payload for a field patch; nil
// means the field is not written through this call.
func fieldProperties(field model.Field, value string) (map[string]any, error) {
	switch field {
	case model.FieldName:
		return map[string]any{propTaskName: title(value)}, nil
	case model.FieldDate:
		d, err := model.ParseDate(value)
		if err != nil {
			return nil, err
		}
		if d.IsZero() {
			return map[string]any{propDeadline: map[string]any{"date": nil}}, nil
		}
		return map[string]any{propDeadline: map[string]any{"date": map[string]string{"start": d.String()}}}, nil
	case model.FieldPriority:
		return map[string]any{propPriority: map[string]any{"select": map[string]string{"name": value}}}, nil
	case model.FieldStatus:
		return map[string]any{propStatus: map[string]any{"status": map[string]string{"name": value}}}, nil
	case model.FieldNotes:
		return map[string]any{propNotes: map[string]any{
			"rich_text": []any{map[string]any{"text": map[string]string{"content": value}}},
		}}, nil
	case model.FieldEffort:
		effort, err := model.ParseEffort(value)
		if err != nil {
			return nil, err
		}
		return map[string]any{propComplexity: map[string]any{"number": effort}}, nil
	case model.FieldMilestone:
		b, err := model.ParseMilestone(value)
		if err != nil {
			return nil, err
		}
		return map[string]any{propMilestone: map[string]any{"checkbox": b}}, nil
	}
	// Owner needs a user id lookup; category goes through PatchCategory.
	return nil, nil
}
