package builder

// Selection tracks the teachers picked for placement and the drag in progress.
// It performs no validation; legality is decided by the conflict checker.
type Selection struct {
	selected       []string
	multiSelect    bool
	dragging       bool
	draggedTeacher string
	hover          *DropZone
}

// Select picks a teacher. In single-select mode it replaces the current pick.
func (s *Selection) Select(teacherID string) {
	if !s.multiSelect {
		s.selected = []string{teacherID}
		return
	}
	if s.IsSelected(teacherID) {
		return
	}
	s.selected = append(s.selected, teacherID)
}

// Deselect drops a teacher from the selection; unknown ids are ignored.
func (s *Selection) Deselect(teacherID string) {
	for i, id := range s.selected {
		if id == teacherID {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
}

// ToggleMultiSelect flips multi-select mode. Leaving multi-select keeps only
// the most recent pick.
func (s *Selection) ToggleMultiSelect() bool {
	s.multiSelect = !s.multiSelect
	if !s.multiSelect && len(s.selected) > 1 {
		s.selected = []string{s.selected[len(s.selected)-1]}
	}
	return s.multiSelect
}

// StartDragging attaches a teacher to the pointer.
func (s *Selection) StartDragging(teacherID string) {
	s.dragging = true
	s.draggedTeacher = teacherID
}

// StopDragging cancels the drag without touching any draft state.
func (s *Selection) StopDragging() {
	s.dragging = false
	s.draggedTeacher = ""
	s.hover = nil
}

// SetHoverZone records the zone under the pointer; nil clears it.
func (s *Selection) SetHoverZone(zone *DropZone) {
	if zone == nil {
		s.hover = nil
		return
	}
	copied := *zone
	s.hover = &copied
}

// IsSelected reports whether teacherID is currently picked.
func (s *Selection) IsSelected(teacherID string) bool {
	for _, id := range s.selected {
		if id == teacherID {
			return true
		}
	}
	return false
}

// Dragged returns the teacher attached to the pointer, if any.
func (s *Selection) Dragged() (string, bool) {
	return s.draggedTeacher, s.dragging
}

// Selected returns a copy of the picked teacher ids in pick order.
func (s *Selection) Selected() []string {
	return append([]string(nil), s.selected...)
}

// Snapshot returns a copy safe to hand to renderers.
func (s *Selection) Snapshot() SelectionState {
	state := SelectionState{
		Selected:       s.Selected(),
		MultiSelect:    s.multiSelect,
		Dragging:       s.dragging,
		DraggedTeacher: s.draggedTeacher,
	}
	if state.Selected == nil {
		state.Selected = []string{}
	}
	if s.hover != nil {
		hover := *s.hover
		state.HoverZone = &hover
	}
	return state
}
