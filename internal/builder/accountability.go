package builder

// Tracker keeps the per-teacher coverage rollup in first-seen order.
// It is bookkeeping only and is driven by the builder after each attempt.
type Tracker struct {
	order   []string
	entries map[string]TeacherAccountability
}

// NewTracker seeds the tracker with the teachers under consideration.
func NewTracker(teacherIDs ...string) *Tracker {
	t := &Tracker{entries: make(map[string]TeacherAccountability)}
	t.Register(teacherIDs...)
	return t
}

// Register adds teachers as unassigned; known teachers are left as they are.
func (t *Tracker) Register(teacherIDs ...string) {
	for _, id := range teacherIDs {
		if id == "" {
			continue
		}
		if _, ok := t.entries[id]; ok {
			continue
		}
		t.order = append(t.order, id)
		t.entries[id] = TeacherAccountability{TeacherID: id}
	}
}

// Update upserts the assigned and conflicted flags for a teacher.
func (t *Tracker) Update(teacherID string, isAssigned, isConflicted bool) TeacherAccountability {
	t.Register(teacherID)
	entry := t.entries[teacherID]
	entry.IsAssigned = isAssigned
	entry.IsConflicted = isConflicted
	t.entries[teacherID] = entry
	return entry
}

// MarkSaved flags a teacher as having a persisted visit for the date.
func (t *Tracker) MarkSaved(teacherID string) {
	t.Register(teacherID)
	entry := t.entries[teacherID]
	entry.IsSaved = true
	entry.IsAssigned = true
	t.entries[teacherID] = entry
}

// Get returns the entry for teacherID.
func (t *Tracker) Get(teacherID string) (TeacherAccountability, bool) {
	entry, ok := t.entries[teacherID]
	return entry, ok
}

// List returns copies of all entries in registration order.
func (t *Tracker) List() []TeacherAccountability {
	out := make([]TeacherAccountability, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id])
	}
	return out
}

// Coverage counts assigned, conflicted and unassigned teachers.
func (t *Tracker) Coverage() Coverage {
	cov := Coverage{Total: len(t.order)}
	for _, id := range t.order {
		entry := t.entries[id]
		if entry.IsAssigned {
			cov.Assigned++
		} else {
			cov.Unassigned++
		}
		if entry.IsConflicted {
			cov.Conflicted++
		}
	}
	return cov
}

func (t *Tracker) replace(entries []TeacherAccountability) {
	t.order = nil
	t.entries = make(map[string]TeacherAccountability, len(entries))
	for _, entry := range entries {
		if entry.TeacherID == "" {
			continue
		}
		if _, ok := t.entries[entry.TeacherID]; !ok {
			t.order = append(t.order, entry.TeacherID)
		}
		t.entries[entry.TeacherID] = entry
	}
}
