// Package entities - Appointment is a single personal-training session
// booking with a small state machine and a time-window cancellation rule.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// AppointmentStatus represents the persisted state of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // Booked, awaiting staff confirmation
	AppointmentStatusConfirmed AppointmentStatus = "confirmed" // Confirmed by staff
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Cancelled by member
	AppointmentStatusCompleted AppointmentStatus = "completed" // Session took place
	AppointmentStatusMissed    AppointmentStatus = "missed"    // Date passed without completion (set by sweep)
)

// IsValid checks if the appointment status is valid.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled,
		AppointmentStatusCompleted, AppointmentStatusMissed:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the status is terminal.
func (s AppointmentStatus) IsFinal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted || s == AppointmentStatusMissed
}

// CancellationNotice is the minimum lead time before the session start for a
// member-initiated cancellation or reschedule of a confirmed appointment.
const CancellationNotice = 24 * time.Hour

// Appointment represents one PT session booking.
//
// State machine:
//
//	pending   -> confirmed | cancelled
//	confirmed -> cancelled | completed | missed
//
// Invariant (enforced by the persistence layer): for a given trainer, no two
// non-cancelled appointments have overlapping [date, start, end) windows.
type Appointment struct {
	id           uuid.UUID
	memberID     uuid.UUID
	trainerID    uuid.UUID
	membershipID uuid.UUID
	date         time.Time // Calendar day, midnight UTC
	window       valueobjects.TimeWindow
	location     string
	notes        string
	status       AppointmentStatus
	createdAt    time.Time
	updatedAt    time.Time
}

// NewAppointment creates a pending appointment.
func NewAppointment(
	memberID, trainerID, membershipID uuid.UUID,
	date time.Time,
	window valueobjects.TimeWindow,
	location, notes string,
) (*Appointment, error) {
	if date.IsZero() {
		return nil, errors.ValidationError{Field: "date", Message: "date is required"}
	}

	now := time.Now()
	return &Appointment{
		id:           uuid.New(),
		memberID:     memberID,
		trainerID:    trainerID,
		membershipID: membershipID,
		date:         truncateToDay(date),
		window:       window,
		location:     location,
		notes:        notes,
		status:       AppointmentStatusPending,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructAppointment reconstructs an Appointment from stored data.
func ReconstructAppointment(
	id, memberID, trainerID, membershipID uuid.UUID,
	date time.Time,
	window valueobjects.TimeWindow,
	location, notes string,
	status AppointmentStatus,
	createdAt, updatedAt time.Time,
) *Appointment {
	return &Appointment{
		id:           id,
		memberID:     memberID,
		trainerID:    trainerID,
		membershipID: membershipID,
		date:         date,
		window:       window,
		location:     location,
		notes:        notes,
		status:       status,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Getters

func (a *Appointment) ID() uuid.UUID                      { return a.id }
func (a *Appointment) MemberID() uuid.UUID                { return a.memberID }
func (a *Appointment) TrainerID() uuid.UUID               { return a.trainerID }
func (a *Appointment) MembershipID() uuid.UUID            { return a.membershipID }
func (a *Appointment) Date() time.Time                    { return a.date }
func (a *Appointment) Window() valueobjects.TimeWindow    { return a.window }
func (a *Appointment) Location() string                   { return a.location }
func (a *Appointment) Notes() string                      { return a.notes }
func (a *Appointment) Status() AppointmentStatus          { return a.status }
func (a *Appointment) CreatedAt() time.Time               { return a.createdAt }
func (a *Appointment) UpdatedAt() time.Time               { return a.updatedAt }

// StartsAt returns the wall-clock start of the session.
func (a *Appointment) StartsAt() time.Time {
	return a.date.Add(time.Duration(a.window.Start().Minutes()) * time.Minute)
}

// EndsAt returns the wall-clock end of the session.
func (a *Appointment) EndsAt() time.Time {
	return a.date.Add(time.Duration(a.window.End().Minutes()) * time.Minute)
}

// IsOwnedBy checks booking ownership.
func (a *Appointment) IsOwnedBy(memberID uuid.UUID) bool {
	return a.memberID == memberID
}

// State Machine Transitions

// Confirm transitions pending -> confirmed (staff action).
func (a *Appointment) Confirm() error {
	if a.status != AppointmentStatusPending {
		return errors.NewBusinessRuleViolation(
			"CANNOT_CONFIRM_NON_PENDING_APPOINTMENT",
			"only pending appointments can be confirmed",
			map[string]interface{}{"currentStatus": a.status},
		)
	}

	a.status = AppointmentStatusConfirmed
	a.updatedAt = time.Now()
	return nil
}

// CanCancel reports whether a member cancellation is allowed at the given
// instant: not in a terminal state, and at least CancellationNotice before
// the session starts.
func (a *Appointment) CanCancel(now time.Time) bool {
	if a.status != AppointmentStatusPending && a.status != AppointmentStatusConfirmed {
		return false
	}
	return a.StartsAt().Sub(now) >= CancellationNotice
}

// Cancel transitions to cancelled under the notice rule.
// The session quota refund happens in the use case, not here: the entity does
// not know about the membership.
func (a *Appointment) Cancel(now time.Time) error {
	if a.status.IsFinal() {
		return errors.ErrAppointmentFinal
	}
	if !a.CanCancel(now) {
		return errors.ErrNotCancellable
	}

	a.status = AppointmentStatusCancelled
	a.updatedAt = now
	return nil
}

// Reschedule moves the appointment to a new date/window.
// Rules:
//   - terminal appointments cannot move
//   - a confirmed appointment requires the same notice as a cancellation
//   - a pending appointment can move freely (nothing was committed yet)
//
// The new window's availability is validated by the use case before commit.
func (a *Appointment) Reschedule(now, newDate time.Time, newWindow valueobjects.TimeWindow) error {
	if a.status.IsFinal() {
		return errors.ErrAppointmentFinal
	}
	if a.status != AppointmentStatusPending && a.StartsAt().Sub(now) < CancellationNotice {
		return errors.ErrNotCancellable
	}

	a.date = truncateToDay(newDate)
	a.window = newWindow
	a.updatedAt = now
	return nil
}

// MarkMissed transitions a stale pending/confirmed appointment to missed.
// Only the sweep calls this; it is a no-op guard against re-sweeping.
func (a *Appointment) MarkMissed(now time.Time) error {
	if a.status != AppointmentStatusPending && a.status != AppointmentStatusConfirmed {
		return errors.ErrAppointmentFinal
	}

	a.status = AppointmentStatusMissed
	a.updatedAt = now
	return nil
}

// DisplayStatus is the read-time projection shown to members. "completed" is
// never persisted by the booking flow; it is derived from the clock, while
// "missed" is only ever set by the sweep.
func (a *Appointment) DisplayStatus(now time.Time) string {
	switch {
	case a.status == AppointmentStatusCancelled:
		return "cancelled"
	case a.status == AppointmentStatusMissed:
		return "missed"
	case now.After(a.EndsAt()):
		return "completed"
	default:
		return "upcoming"
	}
}
