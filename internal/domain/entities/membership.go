// Package entities - Membership is a member's subscription to a package,
// carrying the consumable training-session quota.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// MembershipStatus represents the current state of a membership.
type MembershipStatus string

const (
	MembershipStatusPending MembershipStatus = "pending" // Created at checkout, payment not confirmed
	MembershipStatusActive  MembershipStatus = "active"  // Payment completed, sessions bookable
	MembershipStatusPaused  MembershipStatus = "paused"  // Frozen by member action
	MembershipStatusExpired MembershipStatus = "expired" // End date passed
)

// IsValid checks if the membership status is valid.
func (s MembershipStatus) IsValid() bool {
	switch s {
	case MembershipStatusPending, MembershipStatusActive, MembershipStatusPaused, MembershipStatusExpired:
		return true
	default:
		return false
	}
}

// Membership represents a member's subscription instance to a package.
//
// Invariants:
//   - availableSessions >= 0 and usedSessions >= 0 at all times
//   - availableSessions + usedSessions is conserved across book/cancel pairs,
//     except at a monthly reset which restores availableSessions to the
//     package allotment and leaves usedSessions as a historical counter
type Membership struct {
	id                uuid.UUID
	memberID          uuid.UUID
	packageID         uuid.UUID
	paymentID         *uuid.UUID
	startDate         *time.Time
	endDate           *time.Time
	status            MembershipStatus
	availableSessions int
	usedSessions      int
	lastSessionsReset *time.Time
	autoRenew         bool
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPendingMembership creates the membership placeholder written at checkout.
// It has no dates and no sessions until the payment completes.
func NewPendingMembership(memberID, packageID, paymentID uuid.UUID) *Membership {
	now := time.Now()
	pid := paymentID
	return &Membership{
		id:        uuid.New(),
		memberID:  memberID,
		packageID: packageID,
		paymentID: &pid,
		status:    MembershipStatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

// NewActiveMembership creates an active membership directly. Used by the
// reconciler when no pending membership survives to the callback (the
// pending-membership bookkeeping was lost or cleaned up).
func NewActiveMembership(memberID, packageID, paymentID uuid.UUID, start, end time.Time, sessions int) *Membership {
	m := NewPendingMembership(memberID, packageID, paymentID)
	m.status = MembershipStatusActive
	m.startDate = &start
	m.endDate = &end
	m.availableSessions = sessions
	m.lastSessionsReset = &start
	return m
}

// ReconstructMembership reconstructs a Membership from stored data.
func ReconstructMembership(
	id, memberID, packageID uuid.UUID,
	paymentID *uuid.UUID,
	startDate, endDate *time.Time,
	status MembershipStatus,
	availableSessions, usedSessions int,
	lastSessionsReset *time.Time,
	autoRenew bool,
	createdAt, updatedAt time.Time,
) *Membership {
	return &Membership{
		id:                id,
		memberID:          memberID,
		packageID:         packageID,
		paymentID:         paymentID,
		startDate:         startDate,
		endDate:           endDate,
		status:            status,
		availableSessions: availableSessions,
		usedSessions:      usedSessions,
		lastSessionsReset: lastSessionsReset,
		autoRenew:         autoRenew,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Getters

func (m *Membership) ID() uuid.UUID                 { return m.id }
func (m *Membership) MemberID() uuid.UUID           { return m.memberID }
func (m *Membership) PackageID() uuid.UUID          { return m.packageID }
func (m *Membership) PaymentID() *uuid.UUID         { return m.paymentID }
func (m *Membership) StartDate() *time.Time         { return m.startDate }
func (m *Membership) EndDate() *time.Time           { return m.endDate }
func (m *Membership) Status() MembershipStatus      { return m.status }
func (m *Membership) AvailableSessions() int        { return m.availableSessions }
func (m *Membership) UsedSessions() int             { return m.usedSessions }
func (m *Membership) LastSessionsReset() *time.Time { return m.lastSessionsReset }
func (m *Membership) AutoRenew() bool               { return m.autoRenew }
func (m *Membership) CreatedAt() time.Time          { return m.createdAt }
func (m *Membership) UpdatedAt() time.Time          { return m.updatedAt }

// IsActive returns true if sessions can be booked against this membership.
func (m *Membership) IsActive() bool {
	return m.status == MembershipStatusActive
}

// Business Methods

// Activate transitions a pending membership to active with the computed
// validity window and full session allotment.
// Business rule: only pending memberships activate; a replayed activation of
// an already-active membership is rejected here and must be guarded upstream
// by the payment's pending-to-completed transition.
func (m *Membership) Activate(paymentID uuid.UUID, start, end time.Time, sessions int) error {
	if m.status != MembershipStatusPending {
		return errors.NewBusinessRuleViolation(
			"MEMBERSHIP_NOT_PENDING",
			"only pending memberships can be activated",
			map[string]interface{}{"status": m.status},
		)
	}

	pid := paymentID
	m.paymentID = &pid
	m.status = MembershipStatusActive
	m.startDate = &start
	m.endDate = &end
	m.availableSessions = sessions
	m.usedSessions = 0
	m.lastSessionsReset = &start
	m.updatedAt = time.Now()
	return nil
}

// NeedsMonthlyReset reports whether the quota should be restored on access:
// the last reset (or the start date, if never reset) is strictly before the
// first day of the calendar month containing now.
func (m *Membership) NeedsMonthlyReset(now time.Time) bool {
	anchor := m.lastSessionsReset
	if anchor == nil {
		anchor = m.startDate
	}
	if anchor == nil {
		return false
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return anchor.Before(firstOfMonth)
}

// ResetSessions restores the available-session counter to the package
// allotment. usedSessions is deliberately left alone as a historical counter.
func (m *Membership) ResetSessions(allotment int, now time.Time) {
	m.availableSessions = allotment
	m.lastSessionsReset = &now
	m.updatedAt = now
}

// ConsumeSession moves one session from available to used.
// The persistence layer enforces the same guard atomically; this in-memory
// transition exists for domain tests and read-path projections.
func (m *Membership) ConsumeSession() error {
	if m.status != MembershipStatusActive {
		return errors.ErrMembershipNotActive
	}
	if m.availableSessions <= 0 {
		return errors.ErrNoSessionsLeft
	}

	m.availableSessions--
	m.usedSessions++
	m.updatedAt = time.Now()
	return nil
}

// RefundSession returns one used session to the available pool.
// A refund with no recorded use is rejected rather than driving
// usedSessions negative.
func (m *Membership) RefundSession() error {
	if m.usedSessions <= 0 {
		return errors.ErrNoSessionsUsed
	}

	m.availableSessions++
	m.usedSessions--
	m.updatedAt = time.Now()
	return nil
}

// Pause freezes an active membership by member action. The start date
// is cleared while frozen; Resume stamps a fresh one.
func (m *Membership) Pause() error {
	if m.status != MembershipStatusActive {
		return errors.ErrMembershipNotActive
	}

	m.status = MembershipStatusPaused
	m.startDate = nil
	m.updatedAt = time.Now()
	return nil
}

// Resume reactivates a paused membership and restarts its start date
// from the moment of resumption. The end date is not extended.
func (m *Membership) Resume() error {
	if m.status != MembershipStatusPaused {
		return errors.ErrMembershipNotPaused
	}

	now := time.Now()
	m.status = MembershipStatusActive
	m.startDate = &now
	m.updatedAt = now
	return nil
}

// Expire transitions the membership to expired once its end date has passed.
// Idempotent at the caller: the sweep only selects active rows.
func (m *Membership) Expire(now time.Time) error {
	if m.endDate == nil || m.endDate.After(now) {
		return errors.NewBusinessRuleViolation(
			"MEMBERSHIP_NOT_EXPIRED",
			"membership end date has not passed",
			map[string]interface{}{"end_date": m.endDate},
		)
	}

	m.status = MembershipStatusExpired
	m.updatedAt = now
	return nil
}
