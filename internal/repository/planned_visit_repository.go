package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/visit-builder-api/internal/models"
)

const plannedVisitColumns = `id, session_id, school_id, coach_id, teacher_id, visit_date, start_time, end_time, period_number, assignment_type, purpose, custom_purpose, duration_minutes, created_at`

// PlannedVisitRepository persists planned visits produced by builder saves.
type PlannedVisitRepository struct {
	db *sqlx.DB
}

// NewPlannedVisitRepository creates a new planned visit repository.
func NewPlannedVisitRepository(db *sqlx.DB) *PlannedVisitRepository {
	return &PlannedVisitRepository{db: db}
}

// BulkCreate inserts all visits in one transaction. IDs and timestamps are
// filled in on the passed slice.
func (r *PlannedVisitRepository) BulkCreate(ctx context.Context, visits []models.PlannedVisit) (err error) {
	if len(visits) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create planned visits: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range visits {
		payload := visits[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO planned_visits (`+plannedVisitColumns+`) VALUES (:id, :session_id, :school_id, :coach_id, :teacher_id, :visit_date, :start_time, :end_time, :period_number, :assignment_type, :purpose, :custom_purpose, :duration_minutes, :created_at)`, &payload); err != nil {
			return fmt.Errorf("insert planned visit for teacher %s: %w", payload.TeacherID, err)
		}
		visits[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create planned visits: %w", err)
	}
	return nil
}

// ListByTeacherAndDate returns the teacher's persisted visits for a date, any coach.
func (r *PlannedVisitRepository) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.PlannedVisit, error) {
	var visits []models.PlannedVisit
	query := `SELECT ` + plannedVisitColumns + ` FROM planned_visits WHERE teacher_id = $1 AND visit_date = $2 ORDER BY start_time`
	if err := r.db.SelectContext(ctx, &visits, query, teacherID, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list planned visits for teacher %s: %w", teacherID, err)
	}
	return visits, nil
}
