package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

type stubVisitWriter struct {
	created []models.PlannedVisit
	err     error
}

func (s *stubVisitWriter) BulkCreate(ctx context.Context, visits []models.PlannedVisit) error {
	if s.err != nil {
		return s.err
	}
	for i := range visits {
		visits[i].ID = fmt.Sprintf("visit-%d", i+1)
		visits[i].CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	s.created = append(s.created, visits...)
	return nil
}

type recordingInvalidator struct {
	date     string
	teachers []string
}

func (r *recordingInvalidator) InvalidateTeacherDate(ctx context.Context, date string, teacherIDs ...string) {
	r.date = date
	r.teachers = append(r.teachers, teacherIDs...)
}

func visitInputs() ([]builder.VisitInput, builder.VisitContext) {
	period, _ := builder.NewPeriodTimeSlot("09:00", "09:45", 2)
	inputs := []builder.VisitInput{
		{TeacherID: "T1", TimeSlot: period, PeriodNumber: 2, AssignmentType: builder.AssignmentObservation, Purpose: "Observation", CustomPurpose: "Check exit tickets", DurationMinutes: 45},
		{TeacherID: "T1", TimeSlot: builder.MustTimeSlot("13:00", "13:30"), AssignmentType: builder.AssignmentDebrief, Purpose: "Debrief", DurationMinutes: 30},
		{TeacherID: "T2", TimeSlot: builder.MustTimeSlot("10:00", "10:30"), AssignmentType: builder.AssignmentPLC, Purpose: "PLC", DurationMinutes: 30},
	}
	return inputs, builder.VisitContext{SessionID: "session-1", Date: "2024-03-04", School: "school-1", Coach: "coach-1"}
}

func TestPlannedVisitCreatorMapsInputs(t *testing.T) {
	writer := &stubVisitWriter{}
	invalidator := &recordingInvalidator{}
	creator := NewPlannedVisitCreator(writer, invalidator, nil)
	inputs, vc := visitInputs()

	records, err := creator.BulkCreateVisits(context.Background(), inputs, vc)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, writer.created, 3)

	first := writer.created[0]
	assert.Equal(t, "school-1", first.SchoolID)
	assert.Equal(t, "coach-1", first.CoachID)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "09:45", first.EndTime)
	require.NotNil(t, first.SessionID)
	assert.Equal(t, "session-1", *first.SessionID)
	require.NotNil(t, first.PeriodNumber)
	assert.Equal(t, 2, *first.PeriodNumber)
	require.NotNil(t, first.CustomPurpose)
	assert.Equal(t, "Check exit tickets", *first.CustomPurpose)
	assert.Equal(t, "2024-03-04", first.VisitDate.Format(builder.DateLayout))
	assert.Nil(t, writer.created[1].PeriodNumber)
	assert.Nil(t, writer.created[1].CustomPurpose)

	assert.Equal(t, "visit-1", records[0].ID)
	assert.Equal(t, builder.AssignmentObservation, records[0].AssignmentType)
	assert.Equal(t, "2024-03-04", records[2].Date)

	assert.Equal(t, "2024-03-04", invalidator.date)
	assert.Equal(t, []string{"T1", "T2"}, invalidator.teachers)
}

func TestPlannedVisitCreatorFailure(t *testing.T) {
	invalidator := &recordingInvalidator{}
	creator := NewPlannedVisitCreator(&stubVisitWriter{err: errors.New("unique violation")}, invalidator, nil)
	inputs, vc := visitInputs()

	_, err := creator.BulkCreateVisits(context.Background(), inputs, vc)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.ErrorContains(t, err, "unique violation")
	assert.Empty(t, invalidator.teachers)

	vc.Date = "tomorrow"
	_, err = creator.BulkCreateVisits(context.Background(), inputs, vc)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
