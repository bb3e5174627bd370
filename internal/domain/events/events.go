// Package events defines domain events that represent significant business
// occurrences. Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events (Observer Pattern foundation)
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.eventID }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

// Event Types (constants for type checking)
const (
	EventTypeAppointmentBooked      = "appointment.booked"
	EventTypeAppointmentConfirmed   = "appointment.confirmed"
	EventTypeAppointmentCancelled   = "appointment.cancelled"
	EventTypeAppointmentRescheduled = "appointment.rescheduled"
	EventTypeAppointmentMissed      = "appointment.missed"
	EventTypeMembershipActivated    = "membership.activated"
	EventTypeMembershipPaused       = "membership.paused"
	EventTypeMembershipResumed      = "membership.resumed"
	EventTypeMembershipExpired      = "membership.expired"
	EventTypePaymentInitiated       = "payment.initiated"
	EventTypePaymentCompleted       = "payment.completed"
	EventTypePaymentFailed          = "payment.failed"
)

// ===== Appointment Events =====

// AppointmentBooked is raised when a booking lands in the calendar.
type AppointmentBooked struct {
	BaseEvent
	MemberID     uuid.UUID
	TrainerID    uuid.UUID
	MembershipID uuid.UUID
	Date         time.Time
	StartTime    string
	EndTime      string
}

func NewAppointmentBooked(appointmentID, memberID, trainerID, membershipID uuid.UUID, date time.Time, startTime, endTime string) *AppointmentBooked {
	return &AppointmentBooked{
		BaseEvent:    newBaseEvent(EventTypeAppointmentBooked, appointmentID),
		MemberID:     memberID,
		TrainerID:    trainerID,
		MembershipID: membershipID,
		Date:         date,
		StartTime:    startTime,
		EndTime:      endTime,
	}
}

// AppointmentConfirmed is raised when staff confirm a pending booking.
type AppointmentConfirmed struct {
	BaseEvent
	MemberID  uuid.UUID
	TrainerID uuid.UUID
}

func NewAppointmentConfirmed(appointmentID, memberID, trainerID uuid.UUID) *AppointmentConfirmed {
	return &AppointmentConfirmed{
		BaseEvent: newBaseEvent(EventTypeAppointmentConfirmed, appointmentID),
		MemberID:  memberID,
		TrainerID: trainerID,
	}
}

// AppointmentCancelled is raised on member cancellation; the session quota
// refund has already happened when this fires.
type AppointmentCancelled struct {
	BaseEvent
	MemberID     uuid.UUID
	TrainerID    uuid.UUID
	MembershipID uuid.UUID
	Refunded     bool
}

func NewAppointmentCancelled(appointmentID, memberID, trainerID, membershipID uuid.UUID, refunded bool) *AppointmentCancelled {
	return &AppointmentCancelled{
		BaseEvent:    newBaseEvent(EventTypeAppointmentCancelled, appointmentID),
		MemberID:     memberID,
		TrainerID:    trainerID,
		MembershipID: membershipID,
		Refunded:     refunded,
	}
}

// AppointmentRescheduled is raised when a booking moves to a new window.
type AppointmentRescheduled struct {
	BaseEvent
	TrainerID uuid.UUID
	NewDate   time.Time
	StartTime string
	EndTime   string
}

func NewAppointmentRescheduled(appointmentID, trainerID uuid.UUID, newDate time.Time, startTime, endTime string) *AppointmentRescheduled {
	return &AppointmentRescheduled{
		BaseEvent: newBaseEvent(EventTypeAppointmentRescheduled, appointmentID),
		TrainerID: trainerID,
		NewDate:   newDate,
		StartTime: startTime,
		EndTime:   endTime,
	}
}

// AppointmentMissed is raised by the sweep for each stale booking it flips.
type AppointmentMissed struct {
	BaseEvent
	SweptAsOf time.Time
}

func NewAppointmentMissed(appointmentID uuid.UUID, sweptAsOf time.Time) *AppointmentMissed {
	return &AppointmentMissed{
		BaseEvent: newBaseEvent(EventTypeAppointmentMissed, appointmentID),
		SweptAsOf: sweptAsOf,
	}
}

// ===== Membership Events =====

// MembershipActivated is raised exactly once per completed payment.
type MembershipActivated struct {
	BaseEvent
	MemberID  uuid.UUID
	PackageID uuid.UUID
	PaymentID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

func NewMembershipActivated(membershipID, memberID, packageID, paymentID uuid.UUID, startDate, endDate time.Time) *MembershipActivated {
	return &MembershipActivated{
		BaseEvent: newBaseEvent(EventTypeMembershipActivated, membershipID),
		MemberID:  memberID,
		PackageID: packageID,
		PaymentID: paymentID,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

// MembershipPaused is raised on member-initiated pause.
type MembershipPaused struct {
	BaseEvent
	MemberID uuid.UUID
}

func NewMembershipPaused(membershipID, memberID uuid.UUID) *MembershipPaused {
	return &MembershipPaused{
		BaseEvent: newBaseEvent(EventTypeMembershipPaused, membershipID),
		MemberID:  memberID,
	}
}

// MembershipResumed is raised when a paused membership reactivates.
type MembershipResumed struct {
	BaseEvent
	MemberID uuid.UUID
}

func NewMembershipResumed(membershipID, memberID uuid.UUID) *MembershipResumed {
	return &MembershipResumed{
		BaseEvent: newBaseEvent(EventTypeMembershipResumed, membershipID),
		MemberID:  memberID,
	}
}

// MembershipExpired is raised by the expiry sweep per flipped row.
type MembershipExpired struct {
	BaseEvent
	SweptAsOf time.Time
}

func NewMembershipExpired(membershipID uuid.UUID, sweptAsOf time.Time) *MembershipExpired {
	return &MembershipExpired{
		BaseEvent: newBaseEvent(EventTypeMembershipExpired, membershipID),
		SweptAsOf: sweptAsOf,
	}
}

// ===== Payment Events =====

// PaymentInitiated is raised when a checkout produces a gateway redirect.
type PaymentInitiated struct {
	BaseEvent
	MemberID      uuid.UUID
	PackageID     uuid.UUID
	TransactionID string
	AmountUnits   int64
}

func NewPaymentInitiated(paymentID, memberID, packageID uuid.UUID, transactionID string, amountUnits int64) *PaymentInitiated {
	return &PaymentInitiated{
		BaseEvent:     newBaseEvent(EventTypePaymentInitiated, paymentID),
		MemberID:      memberID,
		PackageID:     packageID,
		TransactionID: transactionID,
		AmountUnits:   amountUnits,
	}
}

// PaymentCompleted is raised exactly once per transaction id.
type PaymentCompleted struct {
	BaseEvent
	MemberID      uuid.UUID
	TransactionID string
	PayType       string
}

func NewPaymentCompleted(paymentID, memberID uuid.UUID, transactionID, payType string) *PaymentCompleted {
	return &PaymentCompleted{
		BaseEvent:     newBaseEvent(EventTypePaymentCompleted, paymentID),
		MemberID:      memberID,
		TransactionID: transactionID,
		PayType:       payType,
	}
}

// PaymentFailed is raised when the gateway reports a non-zero result code.
type PaymentFailed struct {
	BaseEvent
	TransactionID string
	ResultCode    int
	Message       string
}

func NewPaymentFailed(paymentID uuid.UUID, transactionID string, resultCode int, message string) *PaymentFailed {
	return &PaymentFailed{
		BaseEvent:     newBaseEvent(EventTypePaymentFailed, paymentID),
		TransactionID: transactionID,
		ResultCode:    resultCode,
		Message:       message,
	}
}
