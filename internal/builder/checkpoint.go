package builder

import (
	"errors"
	"fmt"
	"time"
)

// ErrCheckpointMismatch is returned when a checkpoint belongs to another date, school or coach.
var ErrCheckpointMismatch = errors.New("checkpoint does not match session")

// Checkpoint is the explicit save/load form of a draft.
type Checkpoint struct {
	Date             string                  `json:"date"`
	School           string                  `json:"school"`
	Coach            string                  `json:"coach"`
	DraftAssignments []AssignmentState       `json:"draft_assignments"`
	Accountability   []TeacherAccountability `json:"accountability"`
	IsPersisted      bool                    `json:"is_persisted"`
	LastSavedAt      *time.Time              `json:"last_saved_at,omitempty"`
	TakenAt          time.Time               `json:"taken_at"`
}

// Checkpoint captures the draft and accountability.
func (b *Builder) Checkpoint() Checkpoint {
	state := b.State()
	return Checkpoint{
		Date:             state.Date,
		School:           state.School,
		Coach:            state.Coach,
		DraftAssignments: state.DraftAssignments,
		Accountability:   state.Accountability,
		IsPersisted:      state.IsPersisted,
		LastSavedAt:      state.LastSavedAt,
		TakenAt:          b.now(),
	}
}

// Restore replaces the draft and accountability with cp. Every entry is
// validated before anything is replaced.
func (b *Builder) Restore(cp Checkpoint) error {
	if cp.Date != b.cfg.Date || cp.School != b.cfg.School || cp.Coach != b.cfg.Coach {
		return ErrCheckpointMismatch
	}
	var draft Draft
	for i, entry := range cp.DraftAssignments {
		if entry.TeacherID == "" {
			return fmt.Errorf("checkpoint entry %d: %w", i, ErrEmptyTeacherID)
		}
		zone := DropZone{Zone: entry.AssignmentType, TimeSlot: entry.TimeSlot}
		if err := zone.Validate(); err != nil {
			return fmt.Errorf("checkpoint entry %d: %w", i, err)
		}
		created := draft.Create(entry.TeacherID, zone, entry.AssignedAt)
		draft.UpdatePurpose(created.TeacherID, created.TimeSlot, entry.Purpose)
	}

	b.draft.replace(draft.List())
	b.tracker.replace(cp.Accountability)
	for _, entry := range b.draft.List() {
		b.tracker.Register(entry.TeacherID)
		b.refreshAssigned(entry.TeacherID)
	}
	b.isPersisted = cp.IsPersisted
	b.lastSavedAt = nil
	if cp.LastSavedAt != nil {
		saved := *cp.LastSavedAt
		b.lastSavedAt = &saved
	}
	b.selection.StopDragging()
	b.phase = PhaseIdle
	b.touch()
	return nil
}
