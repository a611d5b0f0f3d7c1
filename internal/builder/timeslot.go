package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeSlot is returned when a slot is malformed or not strictly increasing.
var ErrInvalidTimeSlot = errors.New("invalid time slot")

// TimeSlot is a half-open interval [start, end) inside one school day.
// Times are kept as zero-padded 24-hour "HH:MM" strings so lexical and
// chronological order agree. A TimeSlot cannot be changed once built.
type TimeSlot struct {
	start  string
	end    string
	period int
}

// NewTimeSlot validates and normalises start/end into a TimeSlot.
// Accepted inputs are "H:MM", "HH:MM" and "HH:MM:SS"; seconds are dropped.
func NewTimeSlot(start, end string) (TimeSlot, error) {
	return NewPeriodTimeSlot(start, end, 0)
}

// NewPeriodTimeSlot is NewTimeSlot tagged with a bell period number (0 means none).
func NewPeriodTimeSlot(start, end string, period int) (TimeSlot, error) {
	s, err := NormalizeClock(start)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: start %q: %v", ErrInvalidTimeSlot, start, err)
	}
	e, err := NormalizeClock(end)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: end %q: %v", ErrInvalidTimeSlot, end, err)
	}
	if s >= e {
		return TimeSlot{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidTimeSlot, s, e)
	}
	if period < 0 {
		return TimeSlot{}, fmt.Errorf("%w: negative period number %d", ErrInvalidTimeSlot, period)
	}
	return TimeSlot{start: s, end: e, period: period}, nil
}

// MustTimeSlot panics on invalid input. Intended for literals and tests.
func MustTimeSlot(start, end string) TimeSlot {
	slot, err := NewTimeSlot(start, end)
	if err != nil {
		panic(err)
	}
	return slot
}

// Start returns the inclusive start time.
func (t TimeSlot) Start() string { return t.start }

// End returns the exclusive end time.
func (t TimeSlot) End() string { return t.end }

// Period returns the bell period number, or 0 when the slot is not tied to one.
func (t TimeSlot) Period() int { return t.period }

// IsZero reports whether the slot was never constructed.
func (t TimeSlot) IsZero() bool { return t.start == "" && t.end == "" }

// Minutes returns the slot length.
func (t TimeSlot) Minutes() int {
	s, _ := clockMinutes(t.start)
	e, _ := clockMinutes(t.end)
	return e - s
}

func (t TimeSlot) String() string {
	return t.start + "-" + t.end
}

type timeSlotJSON struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PeriodNumber int    `json:"period_number,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t TimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeSlotJSON{StartTime: t.start, EndTime: t.end, PeriodNumber: t.period})
}

// UnmarshalJSON validates the decoded interval.
func (t *TimeSlot) UnmarshalJSON(data []byte) error {
	var raw timeSlotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	slot, err := NewPeriodTimeSlot(raw.StartTime, raw.EndTime, raw.PeriodNumber)
	if err != nil {
		return err
	}
	*t = slot
	return nil
}

// SlotsEqual reports whether both slots cover exactly the same interval.
// The period tag is not part of identity.
func SlotsEqual(a, b TimeSlot) bool {
	return a.start == b.start && a.end == b.end
}

// SlotsOverlap reports whether two half-open intervals intersect.
// Touching endpoints do not overlap.
func SlotsOverlap(a, b TimeSlot) bool {
	return a.start < b.end && b.start < a.end
}

// NormalizeClock converts a clock string into zero-padded "HH:MM".
func NormalizeClock(value string) (string, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("expected HH:MM")
	}
	hour, err := parseClockPart(parts[0], 1, 2)
	if err != nil || hour > 23 {
		return "", fmt.Errorf("invalid hour")
	}
	minute, err := parseClockPart(parts[1], 2, 2)
	if err != nil || minute > 59 {
		return "", fmt.Errorf("invalid minute")
	}
	if len(parts) == 3 {
		second, err := parseClockPart(parts[2], 2, 2)
		if err != nil || second > 59 {
			return "", fmt.Errorf("invalid second")
		}
	}
	return formatClock(hour*60 + minute), nil
}

func parseClockPart(part string, minLen, maxLen int) (int, error) {
	if len(part) < minLen || len(part) > maxLen {
		return 0, fmt.Errorf("bad length")
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a digit")
		}
	}
	return strconv.Atoi(part)
}

func clockMinutes(value string) (int, error) {
	normalized, err := NormalizeClock(value)
	if err != nil {
		return 0, err
	}
	hour, _ := strconv.Atoi(normalized[:2])
	minute, _ := strconv.Atoi(normalized[3:])
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
