// Package dtos - Membership DTOs для абонементов.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// PauseMembershipCommand - команда приостановки абонемента.
type PauseMembershipCommand struct {
	MembershipID string `json:"membership_id" validate:"required,uuid"`
	MemberID     string `json:"member_id" validate:"required,uuid"`
}

// ResumeMembershipCommand - команда возобновления абонемента.
type ResumeMembershipCommand struct {
	MembershipID string `json:"membership_id" validate:"required,uuid"`
	MemberID     string `json:"member_id" validate:"required,uuid"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetMembershipQuery - запрос абонемента по ID.
// Пустой MemberID означает запрос от персонала: проверка владельца пропускается.
type GetMembershipQuery struct {
	MembershipID string `json:"membership_id" validate:"required,uuid"`
	MemberID     string `json:"member_id" validate:"omitempty,uuid"`
}

// GetActiveMembershipQuery - запрос действующего абонемента участника.
type GetActiveMembershipQuery struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
}

// ============================================
// Responses
// ============================================

// MembershipDTO - представление абонемента для API.
type MembershipDTO struct {
	ID                string     `json:"id"`
	MemberID          string     `json:"member_id"`
	PackageID         string     `json:"package_id"`
	Status            string     `json:"status"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	AvailableSessions int        `json:"available_sessions"`
	UsedSessions      int        `json:"used_sessions"`
	AutoRenew         bool       `json:"auto_renew"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
