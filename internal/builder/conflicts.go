package builder

import (
	"context"
	"fmt"
)

// CommitmentSource supplies the persisted side of conflict checking.
type CommitmentSource interface {
	FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]Commitment, error)
}

// CommitmentSourceFunc adapts a function to CommitmentSource.
type CommitmentSourceFunc func(ctx context.Context, teacherID, date string) ([]Commitment, error)

// FetchTeacherCommitments implements CommitmentSource.
func (f CommitmentSourceFunc) FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]Commitment, error) {
	return f(ctx, teacherID, date)
}

// ConflictChecker decides whether a candidate placement would double-book a
// teacher, against external commitments and the teacher's other draft entries.
type ConflictChecker struct {
	source CommitmentSource
	draft  *Draft
	date   string
}

// NewConflictChecker builds a checker over the given draft. A nil source means
// the teacher has no external commitments.
func NewConflictChecker(source CommitmentSource, draft *Draft, date string) *ConflictChecker {
	return &ConflictChecker{source: source, draft: draft, date: date}
}

// Check collects every conflict for placing teacherID into zone. The
// commitment lookup is the only blocking step. An identical slot already in
// the draft only conflicts when the requested type differs; the same type is
// an idempotent re-drop.
func (c *ConflictChecker) Check(ctx context.Context, teacherID string, zone DropZone) (ConflictResult, error) {
	result := ConflictResult{Conflicts: []Conflict{}}

	if c.source != nil {
		commitments, err := c.source.FetchTeacherCommitments(ctx, teacherID, c.date)
		if err != nil {
			return ConflictResult{}, fmt.Errorf("fetch commitments for teacher %s: %w", teacherID, err)
		}
		for _, commitment := range commitments {
			if !SlotsOverlap(commitment.TimeSlot, zone.TimeSlot) {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Source:       ConflictWithCommitment,
				TeacherID:    teacherID,
				TimeSlot:     commitment.TimeSlot,
				CommitmentID: commitment.ID,
				Kind:         commitment.Kind,
				Description:  commitment.Description,
			})
		}
	}

	if c.draft != nil {
		for _, entry := range c.draft.ForTeacher(teacherID) {
			if SlotsEqual(entry.TimeSlot, zone.TimeSlot) {
				if entry.AssignmentType == zone.Zone {
					continue
				}
			} else if !SlotsOverlap(entry.TimeSlot, zone.TimeSlot) {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Source:         ConflictWithDraft,
				TeacherID:      teacherID,
				TimeSlot:       entry.TimeSlot,
				AssignmentType: entry.AssignmentType,
			})
		}
	}

	result.HasConflicts = len(result.Conflicts) > 0
	return result, nil
}
