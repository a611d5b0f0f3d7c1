package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

type plannedVisitWriter interface {
	BulkCreate(ctx context.Context, visits []models.PlannedVisit) error
}

type commitmentInvalidator interface {
	InvalidateTeacherDate(ctx context.Context, date string, teacherIDs ...string)
}

// PlannedVisitCreator persists saved drafts as planned visits.
type PlannedVisitCreator struct {
	repo        plannedVisitWriter
	invalidator commitmentInvalidator
	logger      *zap.Logger
}

// NewPlannedVisitCreator constructs the creator used by builder sessions.
func NewPlannedVisitCreator(repo plannedVisitWriter, invalidator commitmentInvalidator, logger *zap.Logger) *PlannedVisitCreator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannedVisitCreator{repo: repo, invalidator: invalidator, logger: logger}
}

// BulkCreateVisits implements builder.VisitCreator. All inputs are written in
// one transaction.
func (c *PlannedVisitCreator) BulkCreateVisits(ctx context.Context, inputs []builder.VisitInput, vc builder.VisitContext) ([]builder.VisitRecord, error) {
	visitDate, err := time.Parse(builder.DateLayout, vc.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visit date")
	}

	visits := make([]models.PlannedVisit, len(inputs))
	for i, input := range inputs {
		visits[i] = toPlannedVisit(input, vc, visitDate)
	}

	if err := c.repo.BulkCreate(ctx, visits); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create planned visits")
	}

	teachers := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	records := make([]builder.VisitRecord, len(visits))
	for i, visit := range visits {
		records[i] = builder.VisitRecord{
			ID:             visit.ID,
			TeacherID:      visit.TeacherID,
			Date:           vc.Date,
			TimeSlot:       inputs[i].TimeSlot,
			AssignmentType: inputs[i].AssignmentType,
			Purpose:        visit.Purpose,
			CreatedAt:      visit.CreatedAt,
		}
		if _, ok := seen[visit.TeacherID]; !ok {
			seen[visit.TeacherID] = struct{}{}
			teachers = append(teachers, visit.TeacherID)
		}
	}
	if c.invalidator != nil {
		c.invalidator.InvalidateTeacherDate(ctx, vc.Date, teachers...)
	}

	c.logger.Info("planned visits created",
		zap.String("school_id", vc.School),
		zap.String("coach_id", vc.Coach),
		zap.String("date", vc.Date),
		zap.Int("count", len(records)))
	return records, nil
}

func toPlannedVisit(input builder.VisitInput, vc builder.VisitContext, visitDate time.Time) models.PlannedVisit {
	visit := models.PlannedVisit{
		SchoolID:        vc.School,
		CoachID:         vc.Coach,
		TeacherID:       input.TeacherID,
		VisitDate:       visitDate,
		StartTime:       input.TimeSlot.Start(),
		EndTime:         input.TimeSlot.End(),
		AssignmentType:  string(input.AssignmentType),
		Purpose:         input.Purpose,
		DurationMinutes: input.DurationMinutes,
	}
	if vc.SessionID != "" {
		session := vc.SessionID
		visit.SessionID = &session
	}
	if input.PeriodNumber > 0 {
		period := input.PeriodNumber
		visit.PeriodNumber = &period
	}
	if input.CustomPurpose != "" {
		custom := input.CustomPurpose
		visit.CustomPurpose = &custom
	}
	return visit
}
