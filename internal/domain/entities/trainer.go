// Package entities - Trainer owns the weekly availability grid that booking
// validates against.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// WorkingHour is one bookable interval in a trainer's day.
// The available flag is a one-time consumption marker flipped when a booking
// lands in the exact slot; real availability is always derived from the
// conflict scan over non-cancelled appointments, so the flag is advisory.
type WorkingHour struct {
	Window    valueobjects.TimeWindow
	Available bool
}

// DaySchedule is a trainer's availability for one day of the week.
type DaySchedule struct {
	DayOfWeek    int // 0 = Sunday ... 6 = Saturday
	Available    bool
	WorkingHours []WorkingHour
}

// Trainer represents a personal trainer and their weekly schedule.
//
// Invariant: the schedule always has exactly seven entries, one per
// day-of-week 0-6, in order.
type Trainer struct {
	id        uuid.UUID
	fullName  string
	schedule  [7]DaySchedule
	createdAt time.Time
	updatedAt time.Time
}

// NewTrainer creates a trainer with a validated seven-day schedule.
func NewTrainer(fullName string, schedule []DaySchedule) (*Trainer, error) {
	var fixed [7]DaySchedule
	if err := normalizeSchedule(schedule, &fixed); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Trainer{
		id:        uuid.New(),
		fullName:  fullName,
		schedule:  fixed,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructTrainer reconstructs a Trainer from stored data.
func ReconstructTrainer(id uuid.UUID, fullName string, schedule []DaySchedule, createdAt, updatedAt time.Time) (*Trainer, error) {
	var fixed [7]DaySchedule
	if err := normalizeSchedule(schedule, &fixed); err != nil {
		return nil, err
	}

	return &Trainer{
		id:        id,
		fullName:  fullName,
		schedule:  fixed,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// normalizeSchedule validates the 7-day shape and indexes entries by day.
func normalizeSchedule(schedule []DaySchedule, out *[7]DaySchedule) error {
	if len(schedule) != 7 {
		return errors.ValidationError{
			Field:   "schedule",
			Message: "trainer schedule must have exactly 7 day entries",
		}
	}

	seen := [7]bool{}
	for _, day := range schedule {
		if day.DayOfWeek < 0 || day.DayOfWeek > 6 {
			return errors.ValidationError{
				Field:   "schedule.day_of_week",
				Message: "day of week must be between 0 and 6",
			}
		}
		if seen[day.DayOfWeek] {
			return errors.ValidationError{
				Field:   "schedule.day_of_week",
				Message: "duplicate day of week in schedule",
			}
		}
		seen[day.DayOfWeek] = true
		out[day.DayOfWeek] = day
	}
	return nil
}

// Getters

func (t *Trainer) ID() uuid.UUID        { return t.id }
func (t *Trainer) FullName() string     { return t.fullName }
func (t *Trainer) CreatedAt() time.Time { return t.createdAt }
func (t *Trainer) UpdatedAt() time.Time { return t.updatedAt }

// Schedule returns the seven day entries in day-of-week order.
func (t *Trainer) Schedule() []DaySchedule {
	out := make([]DaySchedule, 7)
	copy(out, t.schedule[:])
	return out
}

// DayFor returns the schedule entry for the given calendar date.
func (t *Trainer) DayFor(date time.Time) DaySchedule {
	return t.schedule[int(date.Weekday())]
}

// WorksWindow reports whether the trainer's working hours for the given date
// contain the requested window. Containment is inclusive: a 10:00-11:00
// request fits a 09:00-12:00 working hour. This is the schedule half of the
// availability check; the conflict scan over existing appointments is the
// other half and lives in the repository.
func (t *Trainer) WorksWindow(date time.Time, window valueobjects.TimeWindow) bool {
	day := t.DayFor(date)
	if !day.Available {
		return false
	}

	for _, wh := range day.WorkingHours {
		if window.Within(wh.Window) {
			return true
		}
	}
	return false
}

// ConsumeSlot flips the available flag on the working hour exactly matching
// the window (same start and end, not mere containment). A booking that does
// not line up with a named slot leaves the schedule untouched: the flag is a
// UI marker and the conflict scan stays authoritative.
//
// Returns true if a slot was flipped, so callers can skip a useless save.
func (t *Trainer) ConsumeSlot(date time.Time, window valueobjects.TimeWindow) bool {
	dow := int(date.Weekday())
	for i := range t.schedule[dow].WorkingHours {
		wh := &t.schedule[dow].WorkingHours[i]
		if wh.Window.Equal(window) && wh.Available {
			wh.Available = false
			t.updatedAt = time.Now()
			return true
		}
	}
	return false
}
