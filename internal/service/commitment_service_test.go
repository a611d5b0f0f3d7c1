package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

type stubScheduleReader struct {
	blocks     map[string][]models.TeacherScheduleBlock
	periods    []models.BellPeriod
	err        error
	blockCalls int
	lastDay    int
}

func (s *stubScheduleReader) ListBellPeriods(ctx context.Context, schoolID string, dayIndex int) ([]models.BellPeriod, error) {
	s.lastDay = dayIndex
	return s.periods, s.err
}

func (s *stubScheduleReader) ListTeacherBlocks(ctx context.Context, teacherID string, dayIndex int) ([]models.TeacherScheduleBlock, error) {
	s.blockCalls++
	s.lastDay = dayIndex
	if s.err != nil {
		return nil, s.err
	}
	return s.blocks[teacherID], nil
}

type stubVisitReader struct {
	visits []models.PlannedVisit
	calls  int
}

func (s *stubVisitReader) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.PlannedVisit, error) {
	s.calls++
	return s.visits, nil
}

func newCommitmentFixture(schedules *stubScheduleReader, visits *stubVisitReader) *CommitmentService {
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, zap.NewNop())
	return NewCommitmentService(schedules, visits, cache, metrics, zap.NewNop(), CommitmentConfig{
		Source:             "postgres",
		BlockingActivities: []string{"lunch", " Duty ", ""},
	})
}

func teacherDay() *stubScheduleReader {
	return &stubScheduleReader{blocks: map[string][]models.TeacherScheduleBlock{
		"T1": {
			{PeriodNumber: 5, ActivityType: models.ActivityDuty, Room: "Gym", StartTime: "12:00", EndTime: "12:20"},
			{PeriodNumber: 2, ActivityType: models.ActivityTeaching, StartTime: "09:00", EndTime: "09:45"},
			{PeriodNumber: 4, ActivityType: models.ActivityLunch, StartTime: "11:00:00", EndTime: "11:30:00"},
			{PeriodNumber: 6, ActivityType: models.ActivityLunch, StartTime: "13:30", EndTime: "13:00"},
		},
	}}
}

func TestCommitmentServiceMergesSources(t *testing.T) {
	period := 6
	visits := &stubVisitReader{visits: []models.PlannedVisit{{
		ID: "visit-1", CoachID: "coach-9", StartTime: "13:00", EndTime: "13:45", PeriodNumber: &period, AssignmentType: "observation",
	}}}
	schedules := teacherDay()
	svc := newCommitmentFixture(schedules, visits)

	commitments, err := svc.FetchTeacherCommitments(context.Background(), "T1", "2024-03-04")
	require.NoError(t, err)
	require.Len(t, commitments, 3)

	assert.Equal(t, "lunch", commitments[0].Kind)
	assert.Equal(t, "11:00", commitments[0].TimeSlot.Start())
	assert.Equal(t, "period-4", commitments[0].ID)
	assert.Equal(t, "Duty (Gym)", commitments[1].Description)
	assert.Equal(t, CommitmentKindPlannedVisit, commitments[2].Kind)
	assert.Equal(t, "Observation planned by coach-9", commitments[2].Description)
	assert.Equal(t, 6, commitments[2].TimeSlot.Period())
	assert.Equal(t, 0, schedules.lastDay)
}

func TestCommitmentServiceCachesAndInvalidates(t *testing.T) {
	schedules := teacherDay()
	visits := &stubVisitReader{}
	svc := newCommitmentFixture(schedules, visits)
	ctx := context.Background()

	first, err := svc.FetchTeacherCommitments(ctx, "T1", "2024-03-04")
	require.NoError(t, err)
	second, err := svc.FetchTeacherCommitments(ctx, "T1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 1, schedules.blockCalls)
	require.Len(t, second, len(first))
	assert.True(t, builder.SlotsEqual(first[0].TimeSlot, second[0].TimeSlot))

	svc.InvalidateTeacherDate(ctx, "2024-03-04", "T1")
	_, err = svc.FetchTeacherCommitments(ctx, "T1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2, schedules.blockCalls)
	assert.Equal(t, 2, visits.calls)
}

func TestCommitmentServiceWeekendSkipsSchedule(t *testing.T) {
	schedules := teacherDay()
	visits := &stubVisitReader{}
	svc := newCommitmentFixture(schedules, visits)

	commitments, err := svc.FetchTeacherCommitments(context.Background(), "T1", "2024-03-09")
	require.NoError(t, err)
	assert.Empty(t, commitments)
	assert.Equal(t, 0, schedules.blockCalls)
	assert.Equal(t, 1, visits.calls)
}

func TestCommitmentServiceErrors(t *testing.T) {
	svc := newCommitmentFixture(&stubScheduleReader{err: errors.New("connection reset")}, &stubVisitReader{})

	_, err := svc.FetchTeacherCommitments(context.Background(), "T1", "2024-03-04")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)

	_, err = svc.FetchTeacherCommitments(context.Background(), "T1", "March 4")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommitmentServiceBellPeriods(t *testing.T) {
	schedules := &stubScheduleReader{periods: []models.BellPeriod{
		{PeriodNumber: 1, StartTime: "08:00", EndTime: "08:45", PeriodName: "First"},
	}}
	svc := newCommitmentFixture(schedules, &stubVisitReader{})

	periods, err := svc.BellPeriods(context.Background(), "school-1", "2024-03-06")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, builder.BellPeriod{Number: 1, Start: "08:00", End: "08:45", Name: "First"}, periods[0])
	assert.Equal(t, 2, schedules.lastDay)

	weekend, err := svc.BellPeriods(context.Background(), "school-1", "2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, weekend)
}
