package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCreator struct {
	calls  int
	inputs []VisitInput
	ctx    VisitContext
	err    error
}

func (r *recordingCreator) BulkCreateVisits(_ context.Context, inputs []VisitInput, vc VisitContext) ([]VisitRecord, error) {
	r.calls++
	r.inputs = inputs
	r.ctx = vc
	if r.err != nil {
		return nil, r.err
	}
	records := make([]VisitRecord, 0, len(inputs))
	for i, in := range inputs {
		records = append(records, VisitRecord{
			ID:             string(rune('a' + i)),
			TeacherID:      in.TeacherID,
			Date:           in.Date,
			TimeSlot:       in.TimeSlot,
			AssignmentType: in.AssignmentType,
			Purpose:        in.Purpose,
		})
	}
	return records, nil
}

var fixedNow = time.Date(2024, 9, 9, 7, 30, 0, 0, time.UTC)

func newTestBuilder(t *testing.T, source CommitmentSource, creator VisitCreator, teachers ...string) *Builder {
	t.Helper()
	b, err := New(Config{
		SessionID: "session-1",
		Date:      "2024-09-09",
		School:    "school-1",
		Coach:     "coach-1",
		Teachers:  teachers,
		Now:       func() time.Time { return fixedNow },
	}, source, creator, nil)
	require.NoError(t, err)
	return b
}

func zone(kind AssignmentType, start, end string) DropZone {
	return DropZone{Zone: kind, TimeSlot: MustTimeSlot(start, end)}
}

func drop(t *testing.T, b *Builder, teacherID string, z DropZone) DropResult {
	t.Helper()
	require.NoError(t, b.StartDragging(teacherID))
	return b.HandleDrop(context.Background(), z)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Date: "09/09/2024", School: "s", Coach: "c"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = New(Config{Date: "2024-09-09", School: "s"}, nil, nil, nil)
	assert.Error(t, err)
}

func TestHandleDropCommits(t *testing.T) {
	b := newTestBuilder(t, nil, nil, "t-1", "t-2")

	res := drop(t, b, "t-1", zone(AssignmentObservation, "09:00", "09:45"))
	require.True(t, res.Success)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, "t-1", res.Assignment.TeacherID)
	assert.Equal(t, fixedNow, res.Assignment.AssignedAt)
	assert.Equal(t, PhaseIdle, b.Phase())

	state := b.State()
	assert.Len(t, state.DraftAssignments, 1)
	assert.True(t, state.HasUnsavedChanges)
	assert.False(t, state.IsPersisted)

	acc, ok := b.tracker.Get("t-1")
	require.True(t, ok)
	assert.True(t, acc.IsAssigned)
	assert.False(t, acc.IsConflicted)
	assert.Equal(t, Coverage{Total: 2, Assigned: 1, Unassigned: 1}, b.Coverage())

	dragging := b.Snapshot().Selection.Dragging
	assert.False(t, dragging)
}

func TestHandleDropWithoutDrag(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	res := b.HandleDrop(context.Background(), zone(AssignmentObservation, "09:00", "09:45"))
	assert.False(t, res.Success)
	assert.Equal(t, ErrNotDragging.Error(), res.Error)
	assert.Empty(t, b.State().DraftAssignments)
}

func TestConflictBlocksCommit(t *testing.T) {
	source := staticCommitments(map[string][]Commitment{
		"T": {{ID: "c1", TimeSlot: MustTimeSlot("09:00", "10:00")}},
	})
	b := newTestBuilder(t, source, nil, "T")

	res := drop(t, b, "T", zone(AssignmentObservation, "09:30", "10:30"))
	assert.False(t, res.Success)
	assert.True(t, res.HasConflicts)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "c1", res.Conflicts[0].CommitmentID)
	assert.Empty(t, b.State().DraftAssignments)
	assert.False(t, b.HasUnsavedChanges())
	assert.Equal(t, PhaseIdle, b.Phase())
}

func TestAccountabilityAfterRejectedAttemptKeepsAssigned(t *testing.T) {
	b := newTestBuilder(t, nil, nil, "T")

	require.True(t, drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45")).Success)
	res := drop(t, b, "T", zone(AssignmentDebrief, "09:30", "10:15"))
	require.True(t, res.HasConflicts)

	acc, _ := b.tracker.Get("T")
	assert.True(t, acc.IsAssigned)
	assert.True(t, acc.IsConflicted)

	require.True(t, drop(t, b, "T", zone(AssignmentDebrief, "10:30", "11:00")).Success)
	acc, _ = b.tracker.Get("T")
	assert.True(t, acc.IsAssigned)
	assert.False(t, acc.IsConflicted)
}

func TestAccountabilityRejectedFirstAttempt(t *testing.T) {
	source := staticCommitments(map[string][]Commitment{
		"T": {{TimeSlot: MustTimeSlot("09:00", "10:00")}},
	})
	b := newTestBuilder(t, source, nil)

	drop(t, b, "T", zone(AssignmentObservation, "09:15", "09:45"))
	acc, ok := b.tracker.Get("T")
	require.True(t, ok)
	assert.False(t, acc.IsAssigned)
	assert.True(t, acc.IsConflicted)
}

func TestLookupFailureIsStructured(t *testing.T) {
	source := CommitmentSourceFunc(func(context.Context, string, string) ([]Commitment, error) {
		return nil, errors.New("timeout")
	})
	b := newTestBuilder(t, source, nil, "T")

	res := drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45"))
	assert.False(t, res.Success)
	assert.False(t, res.HasConflicts)
	assert.Contains(t, res.Error, "timeout")
	assert.Empty(t, b.State().DraftAssignments)
	assert.Equal(t, PhaseIdle, b.Phase())

	acc, _ := b.tracker.Get("T")
	assert.Equal(t, TeacherAccountability{TeacherID: "T"}, acc)
}

func TestIdempotentReDrop(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	z := zone(AssignmentObservation, "09:00", "09:45")

	require.True(t, drop(t, b, "T", z).Success)
	require.True(t, drop(t, b, "T", z).Success)
	assert.Len(t, b.State().DraftAssignments, 1)

	res := drop(t, b, "T", zone(AssignmentDebrief, "09:00", "09:45"))
	assert.True(t, res.HasConflicts)
	entry, ok := b.GetAssignment("T", z.TimeSlot)
	require.True(t, ok)
	assert.Equal(t, AssignmentObservation, entry.AssignmentType)
}

func TestCreateAssignmentReplaceSemantics(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	slot := MustTimeSlot("09:00", "09:45")

	_, err := b.CreateAssignment("T", DropZone{Zone: AssignmentObservation, TimeSlot: slot})
	require.NoError(t, err)
	_, err = b.CreateAssignment("T", DropZone{Zone: AssignmentDebrief, TimeSlot: slot})
	require.NoError(t, err)

	state := b.State()
	require.Len(t, state.DraftAssignments, 1)
	assert.Equal(t, AssignmentDebrief, state.DraftAssignments[0].AssignmentType)

	_, err = b.CreateAssignment("", DropZone{Zone: AssignmentDebrief, TimeSlot: slot})
	assert.ErrorIs(t, err, ErrEmptyTeacherID)
	_, err = b.CreateAssignment("T", DropZone{Zone: "lunch", TimeSlot: slot})
	assert.ErrorIs(t, err, ErrInvalidAssignmentType)
}

func TestRemoveRecomputesAccountability(t *testing.T) {
	b := newTestBuilder(t, nil, nil, "T")
	z := zone(AssignmentObservation, "09:00", "09:45")
	require.True(t, drop(t, b, "T", z).Success)

	assert.True(t, b.RemoveAssignment("T", z.TimeSlot))
	assert.False(t, b.RemoveAssignment("T", z.TimeSlot))

	acc, _ := b.tracker.Get("T")
	assert.False(t, acc.IsAssigned)
	assert.False(t, b.HasUnsavedChanges())
}

func TestUpdatePurposeMarksUnsaved(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	z := zone(AssignmentObservation, "09:00", "09:45")
	require.True(t, drop(t, b, "T", z).Success)

	entry, ok := b.UpdateAssignmentPurpose("T", z.TimeSlot, "Debrief")
	require.True(t, ok)
	assert.Equal(t, "Debrief", entry.Purpose)
	assert.True(t, b.HasUnsavedChanges())

	_, ok = b.UpdateAssignmentPurpose("X", z.TimeSlot, "Debrief")
	assert.False(t, ok)
}

func TestAssignRequiresIdle(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	require.NoError(t, b.StartDragging("T"))

	res := b.Assign(context.Background(), "U", zone(AssignmentObservation, "09:00", "09:45"))
	assert.False(t, res.Success)
	assert.Equal(t, ErrDragInProgress.Error(), res.Error)
	assert.Equal(t, PhaseDragging, b.Phase())

	b.StopDragging()
	assert.Equal(t, PhaseIdle, b.Phase())
	res = b.Assign(context.Background(), "U", zone(AssignmentObservation, "09:00", "09:45"))
	assert.True(t, res.Success)
}

func TestAssignSelected(t *testing.T) {
	source := staticCommitments(map[string][]Commitment{
		"B": {{TimeSlot: MustTimeSlot("09:00", "09:30")}},
	})
	b := newTestBuilder(t, source, nil, "A", "B", "C")
	b.ToggleMultiSelect()
	b.Select("A")
	b.Select("B")
	b.Select("C")
	b.Deselect("C")

	results := b.AssignSelected(context.Background(), zone(AssignmentPLC, "09:00", "09:45"))
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "A", results[0].TeacherID)
	assert.True(t, results[1].HasConflicts)
	assert.Equal(t, "B", results[1].TeacherID)
	assert.Equal(t, Coverage{Total: 3, Assigned: 1, Conflicted: 1, Unassigned: 2}, b.Coverage())
}

func TestStopDraggingLeavesDraft(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	require.True(t, drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45")).Success)

	require.NoError(t, b.StartDragging("U"))
	hover := zone(AssignmentDebrief, "10:00", "10:30")
	b.SetHoverZone(&hover)
	require.NotNil(t, b.HoverZone())
	b.StopDragging()

	assert.Nil(t, b.HoverZone())
	assert.Len(t, b.State().DraftAssignments, 1)
	assert.Error(t, b.StartDragging(""))
}

func TestInvalidZoneIsRejected(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	require.NoError(t, b.StartDragging("T"))
	res := b.HandleDrop(context.Background(), DropZone{Zone: "recess", TimeSlot: MustTimeSlot("09:00", "09:45")})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, ErrInvalidAssignmentType.Error())
	assert.Equal(t, PhaseIdle, b.Phase())
}

func TestSaveStateEmptyDraftIsNoop(t *testing.T) {
	creator := &recordingCreator{}
	b := newTestBuilder(t, nil, creator)

	for i := 0; i < 2; i++ {
		res := b.SaveState(context.Background())
		assert.True(t, res.Success)
	}
	assert.Equal(t, 0, creator.calls)
	assert.False(t, b.State().IsPersisted)
}

func TestSaveStateFailurePreservesDraft(t *testing.T) {
	creator := &recordingCreator{err: errors.New("bulk create failed")}
	b := newTestBuilder(t, nil, creator, "T")
	require.True(t, drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45")).Success)
	_, ok := b.UpdateAssignmentPurpose("T", MustTimeSlot("09:00", "09:45"), "Debrief")
	require.True(t, ok)

	before := b.State().DraftAssignments
	res := b.SaveState(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bulk create failed")
	assert.Equal(t, 1, creator.calls)
	after := b.State()
	assert.Equal(t, before, after.DraftAssignments)
	assert.True(t, after.HasUnsavedChanges)
	assert.False(t, after.IsPersisted)
	assert.Nil(t, after.LastSavedAt)
}

func TestSaveStateWithoutCreator(t *testing.T) {
	b := newTestBuilder(t, nil, nil)
	require.True(t, drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45")).Success)
	res := b.SaveState(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoVisitCreator.Error(), res.Error)
	assert.Len(t, b.State().DraftAssignments, 1)
}

func TestSaveStatePayload(t *testing.T) {
	creator := &recordingCreator{}
	b := newTestBuilder(t, nil, creator, "B", "A")
	periodSlot, err := NewPeriodTimeSlot("10:00", "10:30", 3)
	require.NoError(t, err)

	require.True(t, drop(t, b, "B", DropZone{Zone: AssignmentDebrief, TimeSlot: periodSlot}).Success)
	require.True(t, drop(t, b, "A", zone(AssignmentObservation, "11:00", "11:45")).Success)
	require.True(t, drop(t, b, "A", zone(AssignmentCoPlanning, "08:00", "08:30")).Success)
	_, ok := b.UpdateAssignmentPurpose("A", MustTimeSlot("11:00", "11:45"), "Walkthrough")
	require.True(t, ok)

	res := b.SaveState(context.Background())
	require.True(t, res.Success)
	require.Len(t, res.Created, 3)
	require.Len(t, creator.inputs, 3)

	assert.Equal(t, VisitContext{SessionID: "session-1", Date: "2024-09-09", School: "school-1", Coach: "coach-1"}, creator.ctx)

	first := creator.inputs[0]
	assert.Equal(t, "A", first.TeacherID)
	assert.Equal(t, "08:00", first.TimeSlot.Start())
	assert.Equal(t, "Co-Planning", first.Purpose)
	assert.Equal(t, 30, first.DurationMinutes)

	second := creator.inputs[1]
	assert.Equal(t, "Observation", second.Purpose)
	assert.Equal(t, "Walkthrough", second.CustomPurpose)
	assert.Equal(t, 45, second.DurationMinutes)

	third := creator.inputs[2]
	assert.Equal(t, "B", third.TeacherID)
	assert.Equal(t, 3, third.PeriodNumber)
	assert.Equal(t, "Debrief", third.Purpose)

	state := b.State()
	assert.Empty(t, state.DraftAssignments)
	assert.True(t, state.IsPersisted)
	assert.False(t, state.HasUnsavedChanges)
	require.NotNil(t, state.LastSavedAt)
	assert.Equal(t, fixedNow, *state.LastSavedAt)

	for _, acc := range b.Accountability() {
		assert.True(t, acc.IsSaved, acc.TeacherID)
		assert.True(t, acc.IsAssigned, acc.TeacherID)
	}

	again := b.SaveState(context.Background())
	assert.True(t, again.Success)
	assert.Equal(t, 1, creator.calls)
}

func TestDiscardKeepsSavedAccountability(t *testing.T) {
	creator := &recordingCreator{}
	b := newTestBuilder(t, nil, creator, "T", "U")
	require.True(t, drop(t, b, "T", zone(AssignmentObservation, "09:00", "09:45")).Success)
	require.True(t, b.SaveState(context.Background()).Success)

	require.True(t, drop(t, b, "T", zone(AssignmentDebrief, "10:00", "10:30")).Success)
	require.True(t, drop(t, b, "U", zone(AssignmentDebrief, "10:00", "10:30")).Success)
	assert.True(t, b.HasUnsavedChanges())

	assert.Equal(t, 2, b.Discard())
	assert.False(t, b.HasUnsavedChanges())

	acc, _ := b.tracker.Get("T")
	assert.True(t, acc.IsAssigned)
	acc, _ = b.tracker.Get("U")
	assert.False(t, acc.IsAssigned)
}

func TestEndToEndScenario(t *testing.T) {
	source := staticCommitments(map[string][]Commitment{
		"A": {{ID: "existing", TimeSlot: MustTimeSlot("08:00", "08:45")}},
	})
	creator := &recordingCreator{}
	b := newTestBuilder(t, source, creator, "A")

	first := drop(t, b, "A", zone(AssignmentObservation, "09:00", "09:45"))
	require.True(t, first.Success)
	assert.Len(t, b.State().DraftAssignments, 1)

	second := drop(t, b, "A", zone(AssignmentDebrief, "09:30", "10:15"))
	require.True(t, second.HasConflicts)
	require.Len(t, second.Conflicts, 1)
	assert.Equal(t, ConflictWithDraft, second.Conflicts[0].Source)
	assert.Equal(t, "09:00", second.Conflicts[0].TimeSlot.Start())
	assert.Len(t, b.State().DraftAssignments, 1)

	saved := b.SaveState(context.Background())
	require.True(t, saved.Success)
	assert.Len(t, b.State().DraftAssignments, 0)
	assert.True(t, b.State().IsPersisted)
}
