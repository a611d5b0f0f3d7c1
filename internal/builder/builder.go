package builder

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config identifies the session a Builder belongs to.
type Config struct {
	SessionID string
	Date      string
	School    string
	Coach     string
	// Teachers seeds accountability with the teachers under consideration.
	Teachers []string
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Builder is the aggregate root of one interactive scheduling session.
// It is not safe for concurrent use; the host serialises calls.
type Builder struct {
	cfg       Config
	selection Selection
	draft     Draft
	tracker   *Tracker
	checker   *ConflictChecker
	creator   VisitCreator
	logger    *zap.Logger
	now       func() time.Time

	phase       Phase
	isPersisted bool
	hasUnsaved  bool
	lastSavedAt *time.Time
}

// New validates cfg and wires the builder components.
func New(cfg Config, commitments CommitmentSource, creator VisitCreator, logger *zap.Logger) (*Builder, error) {
	if _, err := time.Parse(DateLayout, cfg.Date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, cfg.Date)
	}
	if cfg.School == "" || cfg.Coach == "" {
		return nil, fmt.Errorf("school and coach are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	b := &Builder{
		cfg:     cfg,
		tracker: NewTracker(cfg.Teachers...),
		creator: creator,
		logger:  logger.With(zap.String("session_id", cfg.SessionID)),
		now:     now,
		phase:   PhaseIdle,
	}
	b.checker = NewConflictChecker(commitments, &b.draft, cfg.Date)
	return b, nil
}

// Select picks a teacher for placement.
func (b *Builder) Select(teacherID string) { b.selection.Select(teacherID) }

// Deselect removes a teacher from the selection.
func (b *Builder) Deselect(teacherID string) { b.selection.Deselect(teacherID) }

// ToggleMultiSelect flips multi-select mode and returns the new mode.
func (b *Builder) ToggleMultiSelect() bool { return b.selection.ToggleMultiSelect() }

// SetHoverZone records the zone under the pointer; nil clears it.
func (b *Builder) SetHoverZone(zone *DropZone) { b.selection.SetHoverZone(zone) }

// HoverZone returns a copy of the hovered zone, if any.
func (b *Builder) HoverZone() *DropZone { return b.selection.Snapshot().HoverZone }

// CreateAssignment records a draft entry without any conflict check. Callers
// are expected to have checked conflicts; HandleDrop and Assign do so.
func (b *Builder) CreateAssignment(teacherID string, zone DropZone) (AssignmentState, error) {
	if teacherID == "" {
		return AssignmentState{}, ErrEmptyTeacherID
	}
	if err := zone.Validate(); err != nil {
		return AssignmentState{}, err
	}
	entry := b.draft.Create(teacherID, zone, b.now())
	b.refreshAssigned(teacherID)
	b.touch()
	return entry, nil
}

// RemoveAssignment deletes the exact-key entry; absent keys are a no-op.
func (b *Builder) RemoveAssignment(teacherID string, slot TimeSlot) bool {
	removed := b.draft.Remove(teacherID, slot)
	if removed {
		b.refreshAssigned(teacherID)
		b.touch()
	}
	return removed
}

// UpdateAssignmentPurpose sets the purpose of an existing entry.
func (b *Builder) UpdateAssignmentPurpose(teacherID string, slot TimeSlot, purpose string) (AssignmentState, bool) {
	entry, ok := b.draft.UpdatePurpose(teacherID, slot, purpose)
	if ok {
		b.touch()
	}
	return entry, ok
}

// GetAssignment is an exact-key lookup into the draft.
func (b *Builder) GetAssignment(teacherID string, slot TimeSlot) (AssignmentState, bool) {
	return b.draft.Get(teacherID, slot)
}

// ClearAssignments empties the draft without saving.
func (b *Builder) ClearAssignments() {
	teachers := b.draftTeachers()
	b.draft.Clear()
	for _, id := range teachers {
		b.refreshAssigned(id)
	}
	b.touch()
}

// Discard throws the whole draft away.
func (b *Builder) Discard() int {
	n := b.draft.Len()
	b.ClearAssignments()
	b.logger.Info("draft discarded",
		zap.String("component", "assignment_management"),
		zap.String("operation", "discard"),
		zap.Int("assignments", n),
	)
	return n
}

// RegisterTeachers adds teachers to the accountability roster.
func (b *Builder) RegisterTeachers(teacherIDs ...string) { b.tracker.Register(teacherIDs...) }

// Accountability returns the per-teacher rollup.
func (b *Builder) Accountability() []TeacherAccountability { return b.tracker.List() }

// Coverage returns the accountability summary.
func (b *Builder) Coverage() Coverage { return b.tracker.Coverage() }

// Phase returns the drop handler state.
func (b *Builder) Phase() Phase { return b.phase }

// HasUnsavedChanges reports whether the draft holds work not yet saved.
func (b *Builder) HasUnsavedChanges() bool { return b.hasUnsaved }

// State returns a deep copy of the aggregate.
func (b *Builder) State() BuilderState {
	state := BuilderState{
		SessionID:         b.cfg.SessionID,
		Date:              b.cfg.Date,
		School:            b.cfg.School,
		Coach:             b.cfg.Coach,
		DraftAssignments:  b.draft.List(),
		Accountability:    b.tracker.List(),
		IsPersisted:       b.isPersisted,
		HasUnsavedChanges: b.hasUnsaved,
	}
	if b.lastSavedAt != nil {
		saved := *b.lastSavedAt
		state.LastSavedAt = &saved
	}
	return state
}

// Snapshot returns everything a renderer needs in one copy.
func (b *Builder) Snapshot() Snapshot {
	return Snapshot{
		State:     b.State(),
		Selection: b.selection.Snapshot(),
		Coverage:  b.tracker.Coverage(),
		Phase:     b.phase,
	}
}

// touch re-derives hasUnsaved once per mutation.
func (b *Builder) touch() {
	b.hasUnsaved = b.draft.Len() > 0
}

func (b *Builder) refreshAssigned(teacherID string) {
	prev, _ := b.tracker.Get(teacherID)
	assigned := prev.IsSaved || len(b.draft.ForTeacher(teacherID)) > 0
	b.tracker.Update(teacherID, assigned, prev.IsConflicted)
}

func (b *Builder) draftTeachers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range b.draft.List() {
		if _, ok := seen[entry.TeacherID]; ok {
			continue
		}
		seen[entry.TeacherID] = struct{}{}
		out = append(out, entry.TeacherID)
	}
	return out
}
