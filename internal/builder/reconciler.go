package builder

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ErrNoVisitCreator is reported when a save is attempted without a creator.
var ErrNoVisitCreator = errors.New("no visit creator configured")

// VisitInput is the creation payload for one planned visit.
type VisitInput struct {
	TeacherID       string         `json:"teacher_id"`
	Date            string         `json:"date"`
	School          string         `json:"school"`
	Coach           string         `json:"coach"`
	SessionID       string         `json:"session_id,omitempty"`
	TimeSlot        TimeSlot       `json:"time_slot"`
	PeriodNumber    int            `json:"period_number,omitempty"`
	AssignmentType  AssignmentType `json:"assignment_type"`
	Purpose         string         `json:"purpose"`
	CustomPurpose   string         `json:"custom_purpose,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	AssignedAt      time.Time      `json:"assigned_at"`
}

// VisitContext carries the session identity shared by all inputs of a save.
type VisitContext struct {
	SessionID string `json:"session_id,omitempty"`
	Date      string `json:"date"`
	School    string `json:"school"`
	Coach     string `json:"coach"`
}

// VisitRecord is a durable planned visit returned by the creator.
type VisitRecord struct {
	ID             string         `json:"id"`
	TeacherID      string         `json:"teacher_id"`
	Date           string         `json:"date"`
	TimeSlot       TimeSlot       `json:"time_slot"`
	AssignmentType AssignmentType `json:"assignment_type"`
	Purpose        string         `json:"purpose"`
	CreatedAt      time.Time      `json:"created_at"`
}

// VisitCreator persists planned visits in one bulk operation.
type VisitCreator interface {
	BulkCreateVisits(ctx context.Context, inputs []VisitInput, vc VisitContext) ([]VisitRecord, error)
}

// VisitCreatorFunc adapts a function to VisitCreator.
type VisitCreatorFunc func(ctx context.Context, inputs []VisitInput, vc VisitContext) ([]VisitRecord, error)

// BulkCreateVisits implements VisitCreator.
func (f VisitCreatorFunc) BulkCreateVisits(ctx context.Context, inputs []VisitInput, vc VisitContext) ([]VisitRecord, error) {
	return f(ctx, inputs, vc)
}

const reconcilerComponent = "persistence_reconciler"

// SaveState converts the draft into planned visits with exactly one bulk
// call. An empty draft succeeds without calling out. The draft is cleared
// only after the creator reports success; on failure it is left as it was
// so the save can be retried.
func (b *Builder) SaveState(ctx context.Context) SaveResult {
	if b.draft.Len() == 0 {
		return SaveResult{Success: true, Created: []VisitRecord{}}
	}
	if b.creator == nil {
		b.logSaveFailure(ErrNoVisitCreator, b.draft.Len())
		return SaveResult{Success: false, Error: ErrNoVisitCreator.Error()}
	}

	inputs := b.VisitInputs()
	records, err := b.creator.BulkCreateVisits(ctx, inputs, b.visitContext())
	if err != nil {
		b.logSaveFailure(err, len(inputs))
		return SaveResult{Success: false, Error: err.Error()}
	}

	teachers := b.draftTeachers()
	b.draft.Clear()
	for _, id := range teachers {
		b.tracker.MarkSaved(id)
	}
	savedAt := b.now()
	b.isPersisted = true
	b.lastSavedAt = &savedAt
	b.hasUnsaved = false

	b.logger.Info("draft saved",
		zap.String("component", reconcilerComponent),
		zap.String("operation", "save_state"),
		zap.Int("visits", len(inputs)),
	)
	if records == nil {
		records = []VisitRecord{}
	}
	return SaveResult{Success: true, Created: records}
}

// VisitInputs builds the creation payload ordered by teacher then start time.
func (b *Builder) VisitInputs() []VisitInput {
	entries := b.draft.List()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TeacherID != entries[j].TeacherID {
			return entries[i].TeacherID < entries[j].TeacherID
		}
		return entries[i].TimeSlot.Start() < entries[j].TimeSlot.Start()
	})
	inputs := make([]VisitInput, 0, len(entries))
	for _, entry := range entries {
		purpose, custom := resolvePurpose(entry)
		inputs = append(inputs, VisitInput{
			TeacherID:       entry.TeacherID,
			Date:            b.cfg.Date,
			School:          b.cfg.School,
			Coach:           b.cfg.Coach,
			SessionID:       b.cfg.SessionID,
			TimeSlot:        entry.TimeSlot,
			PeriodNumber:    entry.TimeSlot.Period(),
			AssignmentType:  entry.AssignmentType,
			Purpose:         purpose,
			CustomPurpose:   custom,
			DurationMinutes: entry.TimeSlot.Minutes(),
			AssignedAt:      entry.AssignedAt,
		})
	}
	return inputs
}

func (b *Builder) visitContext() VisitContext {
	return VisitContext{SessionID: b.cfg.SessionID, Date: b.cfg.Date, School: b.cfg.School, Coach: b.cfg.Coach}
}

func resolvePurpose(entry AssignmentState) (purpose, custom string) {
	switch {
	case entry.Purpose == "":
		return entry.AssignmentType.Label(), ""
	case IsKnownPurpose(entry.Purpose):
		return entry.Purpose, ""
	default:
		return entry.AssignmentType.Label(), entry.Purpose
	}
}

func (b *Builder) logSaveFailure(err error, pending int) {
	b.logger.Error("save failed, draft kept",
		zap.String("component", reconcilerComponent),
		zap.String("operation", "save_state"),
		zap.Int("pending", pending),
		zap.Error(err),
	)
}
