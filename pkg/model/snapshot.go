package model

// Snapshot is one full load from a record store.
type Snapshot struct {
	Tasks  []Task  `json:"tasks"`
	Phases []Phase `json:"phases"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tasks:  make([]Task, len(s.Tasks)),
		Phases: make([]Phase, len(s.Phases)),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	copy(out.Phases, s.Phases)
	return out
}

// TaskIndex returns the position of id in Tasks, or -1.
func (s Snapshot) TaskIndex(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Task returns the task with the given id.
func (s Snapshot) Task(id string) (Task, bool) {
	if i := s.TaskIndex(id); i >= 0 {
		return s.Tasks[i], true
	}
	return Task{}, false
}

// PhaseByName finds a phase by its display name.
func (s Snapshot) PhaseByName(name string) (Phase, bool) {
	return FindPhase(s.Phases, name)
}

// FindPhase finds a phase by its display name.
func FindPhase(phases []Phase, name string) (Phase, bool) {
	for _, p := range phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// PhaseNames returns phase names in load order.
func (s Snapshot) PhaseNames() []string {
	names := make([]string, 0, len(s.Phases))
	for _, p := range s.Phases {
		names = append(names, p.Name)
	}
	return names
}

// Categories maps phase name to colour.
func (s Snapshot) Categories() map[string]string {
	return Categories(s.Phases)
}

// Dependents returns the ids of tasks that list id in BlockedBy, in load order.
func (s Snapshot) Dependents(id string) []string {
	var out []string
	for _, t := range s.Tasks {
		if t.DependsOn(id) {
			out = append(out, t.ID)
		}
	}
	return out
}
