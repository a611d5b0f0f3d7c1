package models

import "time"

// ActivityType classifies what a teacher does during a period.
type ActivityType string

const (
	ActivityTeaching ActivityType = "teaching"
	ActivityPrep     ActivityType = "prep"
	ActivityDuty     ActivityType = "duty"
	ActivityLunch    ActivityType = "lunch"
	ActivityMeeting  ActivityType = "meeting"
)

// BellPeriod is one time block of a school's bell schedule for a weekday.
type BellPeriod struct {
	SchoolID     string `db:"school_id" json:"school_id"`
	DayIndex     int    `db:"day_index" json:"day_index"`
	PeriodNumber int    `db:"period_number" json:"period_number"`
	StartTime    string `db:"start_time" json:"start_time"`
	EndTime      string `db:"end_time" json:"end_time"`
	PeriodName   string `db:"period_name" json:"period_name,omitempty"`
}

// TeacherScheduleBlock is a teacher's period joined with its bell times.
type TeacherScheduleBlock struct {
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	SchoolID     string       `db:"school_id" json:"school_id"`
	DayIndex     int          `db:"day_index" json:"day_index"`
	PeriodNumber int          `db:"period_number" json:"period_number"`
	ClassName    string       `db:"class_name" json:"class_name"`
	Room         string       `db:"room" json:"room"`
	ActivityType ActivityType `db:"activity_type" json:"activity_type"`
	StartTime    string       `db:"start_time" json:"start_time"`
	EndTime      string       `db:"end_time" json:"end_time"`
}

// DayIndex maps a date onto bell schedule day indices: Monday is 0, Friday is 4.
// Weekends return -1.
func DayIndex(date time.Time) int {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return -1
	default:
		return int(date.Weekday()) - 1
	}
}
