package builder

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAssignmentType is returned for a zone outside the known set.
	ErrInvalidAssignmentType = errors.New("invalid assignment type")
	// ErrEmptyTeacherID is returned when a mutation is keyed by an empty teacher id.
	ErrEmptyTeacherID = errors.New("teacher id is required")
	// ErrNotDragging is returned when a drop arrives without an active drag.
	ErrNotDragging = errors.New("no teacher is being dragged")
	// ErrInvalidDate is returned when the builder date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid builder date")
)

// DateLayout is the layout of BuilderState dates.
const DateLayout = "2006-01-02"

// AssignmentType is the kind of visit a coach places on the grid.
type AssignmentType string

const (
	AssignmentObservation AssignmentType = "observation"
	AssignmentDebrief     AssignmentType = "debrief"
	AssignmentCoPlanning  AssignmentType = "co_planning"
	AssignmentPLC         AssignmentType = "plc"
	AssignmentFullVisit   AssignmentType = "full_visit"
)

var assignmentLabels = map[AssignmentType]string{
	AssignmentObservation: "Observation",
	AssignmentDebrief:     "Debrief",
	AssignmentCoPlanning:  "Co-Planning",
	AssignmentPLC:         "PLC",
	AssignmentFullVisit:   "Full Visit",
}

// AssignmentTypes lists the closed set in display order.
func AssignmentTypes() []AssignmentType {
	return []AssignmentType{AssignmentObservation, AssignmentDebrief, AssignmentCoPlanning, AssignmentPLC, AssignmentFullVisit}
}

// Valid reports whether t belongs to the known set.
func (t AssignmentType) Valid() bool {
	_, ok := assignmentLabels[t]
	return ok
}

// Label returns the human readable purpose for the type.
func (t AssignmentType) Label() string {
	return assignmentLabels[t]
}

// IsKnownPurpose reports whether purpose matches one of the type labels.
func IsKnownPurpose(purpose string) bool {
	for _, label := range assignmentLabels {
		if label == purpose {
			return true
		}
	}
	return false
}

// DropZone is a candidate placement target: one interval and one assignment type.
type DropZone struct {
	Zone     AssignmentType `json:"zone"`
	TimeSlot TimeSlot       `json:"time_slot"`
}

// NewDropZone validates a drop zone.
func NewDropZone(zone AssignmentType, slot TimeSlot) (DropZone, error) {
	dz := DropZone{Zone: zone, TimeSlot: slot}
	if err := dz.Validate(); err != nil {
		return DropZone{}, err
	}
	return dz, nil
}

// Validate checks the zone type and that the slot was constructed.
func (z DropZone) Validate() error {
	if !z.Zone.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAssignmentType, z.Zone)
	}
	if z.TimeSlot.IsZero() {
		return fmt.Errorf("%w: missing slot", ErrInvalidTimeSlot)
	}
	return nil
}

// AssignmentState is one draft placement of a teacher into a slot.
type AssignmentState struct {
	TeacherID      string         `json:"teacher_id"`
	TimeSlot       TimeSlot       `json:"time_slot"`
	AssignmentType AssignmentType `json:"assignment_type"`
	Purpose        string         `json:"purpose,omitempty"`
	IsTemporary    bool           `json:"is_temporary"`
	AssignedAt     time.Time      `json:"assigned_at"`
}

type assignmentKey struct {
	teacherID string
	start     string
	end       string
}

func keyOf(teacherID string, slot TimeSlot) assignmentKey {
	return assignmentKey{teacherID: teacherID, start: slot.Start(), end: slot.End()}
}

// TeacherAccountability is the coverage rollup for one teacher.
type TeacherAccountability struct {
	TeacherID    string `json:"teacher_id"`
	IsAssigned   bool   `json:"is_assigned"`
	IsConflicted bool   `json:"is_conflicted"`
	IsSaved      bool   `json:"is_saved"`
}

// Coverage summarises accountability, e.g. "7 of 10 teachers scheduled".
type Coverage struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	Conflicted int `json:"conflicted"`
	Unassigned int `json:"unassigned"`
}

// ConflictSource identifies which side of the check produced a conflict.
type ConflictSource string

const (
	ConflictWithCommitment ConflictSource = "commitment"
	ConflictWithDraft      ConflictSource = "draft"
)

// Commitment is an externally sourced obligation of a teacher on a date.
type Commitment struct {
	ID          string   `json:"id,omitempty"`
	TimeSlot    TimeSlot `json:"time_slot"`
	Kind        string   `json:"kind,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Conflict references the commitment or draft entry overlapping a candidate.
type Conflict struct {
	Source         ConflictSource `json:"source"`
	TeacherID      string         `json:"teacher_id"`
	TimeSlot       TimeSlot       `json:"time_slot"`
	CommitmentID   string         `json:"commitment_id,omitempty"`
	Kind           string         `json:"kind,omitempty"`
	Description    string         `json:"description,omitempty"`
	AssignmentType AssignmentType `json:"assignment_type,omitempty"`
}

// ConflictResult is the outcome of one conflict check.
type ConflictResult struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// DropResult is returned from every drop or assign attempt.
type DropResult struct {
	Success      bool             `json:"success"`
	TeacherID    string           `json:"teacher_id,omitempty"`
	Assignment   *AssignmentState `json:"assignment,omitempty"`
	HasConflicts bool             `json:"has_conflicts,omitempty"`
	Conflicts    []Conflict       `json:"conflicts,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// SaveResult is returned from SaveState.
type SaveResult struct {
	Success bool          `json:"success"`
	Created []VisitRecord `json:"created,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// BuilderState is a read-only snapshot of the aggregate.
type BuilderState struct {
	SessionID         string                  `json:"session_id,omitempty"`
	Date              string                  `json:"date"`
	School            string                  `json:"school"`
	Coach             string                  `json:"coach"`
	DraftAssignments  []AssignmentState       `json:"draft_assignments"`
	Accountability    []TeacherAccountability `json:"accountability"`
	IsPersisted       bool                    `json:"is_persisted"`
	HasUnsavedChanges bool                    `json:"has_unsaved_changes"`
	LastSavedAt       *time.Time              `json:"last_saved_at,omitempty"`
}

// SelectionState is a snapshot of teacher selection and drag tracking.
type SelectionState struct {
	Selected       []string  `json:"selected"`
	MultiSelect    bool      `json:"multi_select"`
	Dragging       bool      `json:"dragging"`
	DraggedTeacher string    `json:"dragged_teacher,omitempty"`
	HoverZone      *DropZone `json:"hover_zone,omitempty"`
}

// Snapshot bundles everything a host needs for rendering.
type Snapshot struct {
	State     BuilderState   `json:"state"`
	Selection SelectionState `json:"selection"`
	Coverage  Coverage       `json:"coverage"`
	Phase     Phase          `json:"phase"`
}
