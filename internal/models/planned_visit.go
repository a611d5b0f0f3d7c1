package models

import "time"

// PlannedVisit is a durable visit created from a saved builder draft.
type PlannedVisit struct {
	ID              string    `db:"id" json:"id"`
	SessionID       *string   `db:"session_id" json:"session_id,omitempty"`
	SchoolID        string    `db:"school_id" json:"school_id"`
	CoachID         string    `db:"coach_id" json:"coach_id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	VisitDate       time.Time `db:"visit_date" json:"visit_date"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	PeriodNumber    *int      `db:"period_number" json:"period_number,omitempty"`
	AssignmentType  string    `db:"assignment_type" json:"assignment_type"`
	Purpose         string    `db:"purpose" json:"purpose"`
	CustomPurpose   *string   `db:"custom_purpose" json:"custom_purpose,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
