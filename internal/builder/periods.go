package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPeriod is returned when a bell schedule has no such period.
	ErrUnknownPeriod = errors.New("unknown bell period")
	// ErrInvalidPortion is returned for a portion outside the known set.
	ErrInvalidPortion = errors.New("invalid period portion")
)

// Portion selects the part of a bell period a visit covers.
type Portion string

const (
	PortionFull       Portion = "full_period"
	PortionFirstHalf  Portion = "first_half"
	PortionSecondHalf Portion = "second_half"
)

// Valid reports whether p is known.
func (p Portion) Valid() bool {
	switch p {
	case PortionFull, PortionFirstHalf, PortionSecondHalf:
		return true
	}
	return false
}

// BellPeriod is one block of a school's bell schedule.
type BellPeriod struct {
	Number int    `json:"period_number"`
	Start  string `json:"start_time"`
	End    string `json:"end_time"`
	Name   string `json:"name,omitempty"`
}

// Slot returns the whole period as a slot.
func (p BellPeriod) Slot() (TimeSlot, error) {
	return NewPeriodTimeSlot(p.Start, p.End, p.Number)
}

// SlotForPeriod derives the slot for a portion of bell period number.
// Halves split at the floor of the minute midpoint.
func SlotForPeriod(periods []BellPeriod, number int, portion Portion) (TimeSlot, error) {
	if !portion.Valid() {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidPortion, portion)
	}
	for _, period := range periods {
		if period.Number != number {
			continue
		}
		full, err := period.Slot()
		if err != nil {
			return TimeSlot{}, err
		}
		if portion == PortionFull {
			return full, nil
		}
		start, _ := clockMinutes(full.Start())
		end, _ := clockMinutes(full.End())
		mid := formatClock((start + end) / 2)
		if portion == PortionFirstHalf {
			return NewPeriodTimeSlot(full.Start(), mid, number)
		}
		return NewPeriodTimeSlot(mid, full.End(), number)
	}
	return TimeSlot{}, fmt.Errorf("%w: %d", ErrUnknownPeriod, number)
}
