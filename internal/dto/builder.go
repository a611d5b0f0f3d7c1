package dto

import (
	"time"

	"github.com/noah-isme/visit-builder-api/internal/builder"
)

// OpenSessionRequest starts a builder session for one school day.
type OpenSessionRequest struct {
	SchoolID   string   `json:"school_id" validate:"required"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	CoachID    string   `json:"coach_id" validate:"omitempty"`
	TeacherIDs []string `json:"teacher_ids" validate:"omitempty,max=500,dive,required"`
	Restore    bool     `json:"restore"`
}

// SessionResponse describes an open session.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	ExpiresAt time.Time        `json:"expires_at"`
	Restored  bool             `json:"restored"`
	Snapshot  builder.Snapshot `json:"snapshot"`
}

// TeacherRequest names a single teacher for select and drag gestures.
type TeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

// ZoneRequest targets a drop zone either by explicit times or by bell period.
type ZoneRequest struct {
	Zone         string `json:"zone" validate:"required"`
	StartTime    string `json:"start_time" validate:"required_without=PeriodNumber"`
	EndTime      string `json:"end_time" validate:"required_with=StartTime"`
	PeriodNumber int    `json:"period_number" validate:"omitempty,min=1"`
	Portion      string `json:"portion" validate:"omitempty,oneof=full_period first_half second_half"`
}

// HoverRequest sets the hovered zone; a nil zone clears it.
type HoverRequest struct {
	Zone *ZoneRequest `json:"zone"`
}

// AssignRequest places a teacher, or every selected teacher when TeacherID is empty.
type AssignRequest struct {
	ZoneRequest
	TeacherID string `json:"teacher_id"`
}

// PurposeRequest overrides the purpose of one draft entry.
type PurposeRequest struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Purpose   string `json:"purpose" validate:"max=200"`
}

// DropResponse carries per-teacher drop outcomes plus the refreshed snapshot.
type DropResponse struct {
	Results  []builder.DropResult `json:"results"`
	Snapshot builder.Snapshot     `json:"snapshot"`
}

// SaveResponse reports the outcome of persisting a draft.
type SaveResponse struct {
	Result   builder.SaveResult `json:"result"`
	Snapshot builder.Snapshot   `json:"snapshot"`
}

// DiscardResponse reports how many draft entries were dropped.
type DiscardResponse struct {
	Discarded int              `json:"discarded"`
	Snapshot  builder.Snapshot `json:"snapshot"`
}

// CheckpointResponse describes a stored checkpoint.
type CheckpointResponse struct {
	Key       string    `json:"key"`
	TakenAt   time.Time `json:"taken_at"`
	Entries   int       `json:"entries"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountabilityResponse lists per-teacher coverage.
type AccountabilityResponse struct {
	Teachers []builder.TeacherAccountability `json:"teachers"`
	Coverage builder.Coverage                `json:"coverage"`
}
