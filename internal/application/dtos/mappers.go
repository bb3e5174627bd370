// Package dtos - Mappers для конвертации domain entities в DTOs.
//
// Pattern: Mapper/Converter
// Отделяет domain representation от API representation
package dtos

import (
	"time"

	"github.com/Haleralex/gymhub/internal/domain/entities"
)

// DateLayout - формат календарной даты в API.
const DateLayout = "2006-01-02"

// ============================================
// Appointment Mappers
// ============================================

// ToAppointmentDTO конвертирует domain entity Appointment в DTO.
// now нужен для display_status (read-time проекция).
func ToAppointmentDTO(a *entities.Appointment, now time.Time) AppointmentDTO {
	return AppointmentDTO{
		ID:            a.ID().String(),
		MemberID:      a.MemberID().String(),
		TrainerID:     a.TrainerID().String(),
		MembershipID:  a.MembershipID().String(),
		Date:          a.Date().Format(DateLayout),
		StartTime:     a.Window().Start().String(),
		EndTime:       a.Window().End().String(),
		Status:        string(a.Status()),
		DisplayStatus: a.DisplayStatus(now),
		Location:      a.Location(),
		Notes:         a.Notes(),
		CreatedAt:     a.CreatedAt(),
		UpdatedAt:     a.UpdatedAt(),
	}
}

// ToAppointmentDTOList конвертирует список appointments.
func ToAppointmentDTOList(appointments []*entities.Appointment, now time.Time) []AppointmentDTO {
	result := make([]AppointmentDTO, len(appointments))
	for i, a := range appointments {
		result[i] = ToAppointmentDTO(a, now)
	}
	return result
}

// ============================================
// Membership Mappers
// ============================================

// ToMembershipDTO конвертирует domain entity Membership в DTO.
func ToMembershipDTO(m *entities.Membership) MembershipDTO {
	return MembershipDTO{
		ID:                m.ID().String(),
		MemberID:          m.MemberID().String(),
		PackageID:         m.PackageID().String(),
		Status:            string(m.Status()),
		StartDate:         m.StartDate(),
		EndDate:           m.EndDate(),
		AvailableSessions: m.AvailableSessions(),
		UsedSessions:      m.UsedSessions(),
		AutoRenew:         m.AutoRenew(),
		CreatedAt:         m.CreatedAt(),
		UpdatedAt:         m.UpdatedAt(),
	}
}

// ToMembershipSummaryDTO конвертирует Membership в краткую сводку для
// вложения в платёж.
func ToMembershipSummaryDTO(m *entities.Membership) MembershipSummaryDTO {
	return MembershipSummaryDTO{
		ID:                m.ID().String(),
		PackageID:         m.PackageID().String(),
		Status:            string(m.Status()),
		StartDate:         m.StartDate(),
		EndDate:           m.EndDate(),
		AvailableSessions: m.AvailableSessions(),
	}
}

// ============================================
// Payment Mappers
// ============================================

// ToPaymentDTO конвертирует domain entity Payment в DTO.
func ToPaymentDTO(p *entities.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            p.ID().String(),
		MemberID:      p.MemberID().String(),
		PackageID:     p.PackageID().String(),
		Amount:        p.Amount().Units(),
		Currency:      p.Amount().Currency().Code(),
		Status:        string(p.Status()),
		PaymentMethod: p.PaymentMethod(),
		TransactionID: p.TransactionID(),
		CreatedAt:     p.CreatedAt(),
	}

	// Optional fields
	if promo := p.Promotion(); promo != nil {
		dto.Promotion = &PromotionSnapshotDTO{
			PromotionID:     promo.PromotionID.String(),
			Name:            promo.Name,
			DiscountPercent: promo.DiscountPercent,
		}
	}

	if completedAt := p.CompletedAt(); completedAt != nil {
		dto.CompletedAt = completedAt
	}

	return dto
}
