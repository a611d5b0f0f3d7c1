package builder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Phase is the drop handler state.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseDragging           Phase = "dragging"
	PhaseConflictCheck      Phase = "conflict_check"
	PhaseCommitted          Phase = "committed"
	PhaseConflictsPresented Phase = "conflicts_presented"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:               {PhaseDragging, PhaseConflictCheck},
	PhaseDragging:           {PhaseIdle, PhaseDragging, PhaseConflictCheck},
	PhaseConflictCheck:      {PhaseCommitted, PhaseConflictsPresented, PhaseIdle},
	PhaseCommitted:          {PhaseIdle},
	PhaseConflictsPresented: {PhaseIdle},
}

// ErrDragInProgress is returned when a click assignment arrives mid-drag.
var ErrDragInProgress = errors.New("a drag is in progress")

const dropComponent = "drop_handler"

func (b *Builder) transition(to Phase) error {
	for _, allowed := range phaseTransitions[b.phase] {
		if allowed == to {
			b.phase = to
			return nil
		}
	}
	return fmt.Errorf("illegal drop handler transition %s -> %s", b.phase, to)
}

// StartDragging attaches a teacher to the pointer.
func (b *Builder) StartDragging(teacherID string) error {
	if teacherID == "" {
		return ErrEmptyTeacherID
	}
	if err := b.transition(PhaseDragging); err != nil {
		return err
	}
	b.selection.StartDragging(teacherID)
	return nil
}

// StopDragging cancels the current drag. Draft state is untouched.
func (b *Builder) StopDragging() {
	b.selection.StopDragging()
	if b.phase == PhaseDragging {
		b.phase = PhaseIdle
	}
}

// HandleDrop completes a drag onto zone: Dragging -> ConflictCheck ->
// Committed or ConflictsPresented -> Idle. Failures come back as a result
// with Success false and never leave the draft half-mutated.
func (b *Builder) HandleDrop(ctx context.Context, zone DropZone) DropResult {
	teacherID, dragging := b.selection.Dragged()
	if !dragging || b.phase != PhaseDragging {
		b.logFailure("handle_drop", "", ErrNotDragging)
		return DropResult{Success: false, Error: ErrNotDragging.Error()}
	}
	b.selection.StopDragging()
	return b.place(ctx, "handle_drop", teacherID, zone)
}

// Assign places a teacher without a drag, e.g. from a click on the grid.
func (b *Builder) Assign(ctx context.Context, teacherID string, zone DropZone) DropResult {
	if b.phase != PhaseIdle {
		b.logFailure("assign", teacherID, ErrDragInProgress)
		return DropResult{Success: false, TeacherID: teacherID, Error: ErrDragInProgress.Error()}
	}
	return b.place(ctx, "assign", teacherID, zone)
}

// AssignSelected runs Assign for every selected teacher in pick order.
func (b *Builder) AssignSelected(ctx context.Context, zone DropZone) []DropResult {
	selected := b.selection.Selected()
	results := make([]DropResult, 0, len(selected))
	for _, teacherID := range selected {
		results = append(results, b.Assign(ctx, teacherID, zone))
	}
	return results
}

func (b *Builder) place(ctx context.Context, operation, teacherID string, zone DropZone) DropResult {
	defer func() { b.phase = PhaseIdle }()

	if teacherID == "" {
		b.logFailure(operation, teacherID, ErrEmptyTeacherID)
		return DropResult{Success: false, Error: ErrEmptyTeacherID.Error()}
	}
	if err := zone.Validate(); err != nil {
		b.logFailure(operation, teacherID, err)
		return DropResult{Success: false, TeacherID: teacherID, Error: err.Error()}
	}
	if err := b.transition(PhaseConflictCheck); err != nil {
		b.logFailure(operation, teacherID, err)
		return DropResult{Success: false, TeacherID: teacherID, Error: err.Error()}
	}

	check, err := b.checker.Check(ctx, teacherID, zone)
	if err != nil {
		b.logFailure(operation, teacherID, err)
		return DropResult{Success: false, TeacherID: teacherID, Error: err.Error()}
	}

	if check.HasConflicts {
		_ = b.transition(PhaseConflictsPresented)
		prev, _ := b.tracker.Get(teacherID)
		b.tracker.Update(teacherID, prev.IsAssigned, true)
		b.logger.Debug("drop rejected",
			zap.String("component", dropComponent),
			zap.String("operation", operation),
			zap.String("teacher_id", teacherID),
			zap.Stringer("slot", zone.TimeSlot),
			zap.Int("conflicts", len(check.Conflicts)),
		)
		return DropResult{
			Success:      false,
			TeacherID:    teacherID,
			HasConflicts: true,
			Conflicts:    check.Conflicts,
		}
	}

	_ = b.transition(PhaseCommitted)
	entry := b.draft.Create(teacherID, zone, b.now())
	b.tracker.Update(teacherID, true, false)
	b.touch()
	return DropResult{Success: true, TeacherID: teacherID, Assignment: &entry}
}

func (b *Builder) logFailure(operation, teacherID string, err error) {
	b.logger.Warn("drop failed",
		zap.String("component", dropComponent),
		zap.String("operation", operation),
		zap.String("teacher_id", teacherID),
		zap.Error(err),
	)
}
