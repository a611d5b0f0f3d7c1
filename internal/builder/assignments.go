package builder

import "time"

// Draft is the in-memory list of draft assignments for one session.
// At most one entry exists per (teacher, start, end) key. Overlapping but
// non-identical entries are allowed here; rejecting them is the conflict
// checker's job.
type Draft struct {
	entries []AssignmentState
}

// Create builds a new entry, replacing any entry with the same key.
// It never checks conflicts.
func (d *Draft) Create(teacherID string, zone DropZone, at time.Time) AssignmentState {
	entry := AssignmentState{
		TeacherID:      teacherID,
		TimeSlot:       zone.TimeSlot,
		AssignmentType: zone.Zone,
		IsTemporary:    true,
		AssignedAt:     at,
	}
	d.Remove(teacherID, zone.TimeSlot)
	d.entries = append(d.entries, entry)
	return entry
}

// Remove deletes the entry keyed by (teacherID, slot). It reports whether
// anything was removed.
func (d *Draft) Remove(teacherID string, slot TimeSlot) bool {
	idx := d.indexOf(keyOf(teacherID, slot))
	if idx < 0 {
		return false
	}
	d.entries = append(d.entries[:idx:idx], d.entries[idx+1:]...)
	return true
}

// UpdatePurpose sets the purpose of an existing entry in place.
func (d *Draft) UpdatePurpose(teacherID string, slot TimeSlot, purpose string) (AssignmentState, bool) {
	idx := d.indexOf(keyOf(teacherID, slot))
	if idx < 0 {
		return AssignmentState{}, false
	}
	d.entries[idx].Purpose = purpose
	return d.entries[idx], true
}

// Get is an exact-key lookup.
func (d *Draft) Get(teacherID string, slot TimeSlot) (AssignmentState, bool) {
	idx := d.indexOf(keyOf(teacherID, slot))
	if idx < 0 {
		return AssignmentState{}, false
	}
	return d.entries[idx], true
}

// Clear empties the draft.
func (d *Draft) Clear() {
	d.entries = nil
}

// Len returns the number of entries.
func (d *Draft) Len() int { return len(d.entries) }

// ForTeacher returns copies of the entries that belong to teacherID.
func (d *Draft) ForTeacher(teacherID string) []AssignmentState {
	var out []AssignmentState
	for _, entry := range d.entries {
		if entry.TeacherID == teacherID {
			out = append(out, entry)
		}
	}
	return out
}

// List returns a copy of all entries in insertion order.
func (d *Draft) List() []AssignmentState {
	out := make([]AssignmentState, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *Draft) replace(entries []AssignmentState) {
	d.entries = append([]AssignmentState(nil), entries...)
}

func (d *Draft) indexOf(key assignmentKey) int {
	for i, entry := range d.entries {
		if keyOf(entry.TeacherID, entry.TimeSlot) == key {
			return i
		}
	}
	return -1
}
