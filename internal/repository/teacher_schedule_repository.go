package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/visit-builder-api/internal/models"
)

// TeacherScheduleRepository reads bell and teacher schedules from Postgres.
type TeacherScheduleRepository struct {
	db *sqlx.DB
}

// NewTeacherScheduleRepository creates a new teacher schedule repository.
func NewTeacherScheduleRepository(db *sqlx.DB) *TeacherScheduleRepository {
	return &TeacherScheduleRepository{db: db}
}

// ListBellPeriods returns the school's bell periods for a weekday.
func (r *TeacherScheduleRepository) ListBellPeriods(ctx context.Context, schoolID string, dayIndex int) ([]models.BellPeriod, error) {
	const query = `SELECT school_id, day_index, period_number, start_time, end_time, COALESCE(period_name, '') AS period_name
FROM bell_schedule_periods
WHERE school_id = $1 AND day_index = $2
ORDER BY period_number`
	var periods []models.BellPeriod
	if err := r.db.SelectContext(ctx, &periods, query, schoolID, dayIndex); err != nil {
		return nil, fmt.Errorf("list bell periods for school %s: %w", schoolID, err)
	}
	return periods, nil
}

// ListTeacherBlocks returns the teacher's periods for a weekday with bell times attached.
func (r *TeacherScheduleRepository) ListTeacherBlocks(ctx context.Context, teacherID string, dayIndex int) ([]models.TeacherScheduleBlock, error) {
	const query = `SELECT tsp.teacher_id, tsp.school_id, tsp.day_index, tsp.period_number, tsp.class_name, tsp.room, tsp.activity_type, bsp.start_time, bsp.end_time
FROM teacher_schedule_periods tsp
JOIN bell_schedule_periods bsp ON bsp.school_id = tsp.school_id AND bsp.day_index = tsp.day_index AND bsp.period_number = tsp.period_number
WHERE tsp.teacher_id = $1 AND tsp.day_index = $2
ORDER BY bsp.start_time`
	var blocks []models.TeacherScheduleBlock
	if err := r.db.SelectContext(ctx, &blocks, query, teacherID, dayIndex); err != nil {
		return nil, fmt.Errorf("list schedule blocks for teacher %s: %w", teacherID, err)
	}
	return blocks, nil
}
