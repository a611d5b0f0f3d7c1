package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/visit-builder-api/internal/models"
)

func TestTeacherScheduleRepositoryListBellPeriods(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"school_id", "day_index", "period_number", "start_time", "end_time", "period_name"}).
		AddRow("school-1", 0, 1, "08:00", "08:45", "Advisory").
		AddRow("school-1", 0, 2, "08:50", "09:35", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM bell_schedule_periods")).
		WithArgs("school-1", 0).
		WillReturnRows(rows)

	periods, err := repo.ListBellPeriods(context.Background(), "school-1", 0)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Advisory", periods[0].PeriodName)
	assert.Equal(t, 2, periods[1].PeriodNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherScheduleRepositoryListTeacherBlocks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "school_id", "day_index", "period_number", "class_name", "room", "activity_type", "start_time", "end_time"}).
		AddRow("t-1", "school-1", 2, 4, "Lunch Duty", "Cafeteria", "duty", "11:30", "12:15")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN bell_schedule_periods bsp")).
		WithArgs("t-1", 2).
		WillReturnRows(rows)

	blocks, err := repo.ListTeacherBlocks(context.Background(), "t-1", 2)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, models.ActivityDuty, blocks[0].ActivityType)
	assert.Equal(t, "11:30", blocks[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherScheduleRepositoryWrapsErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherScheduleRepository(db)

	mock.ExpectQuery("FROM teacher_schedule_periods").WillReturnError(errors.New("conn reset"))
	_, err := repo.ListTeacherBlocks(context.Background(), "t-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher t-1")
}
