// Package dtos - Appointment DTOs для записей к тренеру.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// BookAppointmentCommand - команда бронирования сессии.
// MembershipID указывает, какой абонемент тратит сессию: при нескольких
// абонементах выбор остаётся за участником, а не за системой.
type BookAppointmentCommand struct {
	MemberID     string `json:"member_id" validate:"required,uuid"`
	TrainerID    string `json:"trainer_id" validate:"required,uuid"`
	MembershipID string `json:"membership_id" validate:"required,uuid"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required"` // "HH:MM"
	EndTime      string `json:"end_time" validate:"required"`   // "HH:MM"
	Location     string `json:"location,omitempty" validate:"max=255"`
	Notes        string `json:"notes,omitempty" validate:"max=500"`
}

// CancelAppointmentCommand - команда отмены записи участником.
type CancelAppointmentCommand struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	MemberID      string `json:"member_id" validate:"required,uuid"`
}

// ConfirmAppointmentCommand - команда подтверждения записи персоналом.
type ConfirmAppointmentCommand struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

// RescheduleAppointmentCommand - команда переноса записи.
type RescheduleAppointmentCommand struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	MemberID      string `json:"member_id" validate:"required,uuid"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetAppointmentQuery - запрос записи по ID.
type GetAppointmentQuery struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

// ListAppointmentsQuery - запрос списка записей с фильтрацией.
// Q - свободный текстовый поиск по месту проведения и заметкам.
type ListAppointmentsQuery struct {
	MemberID  *string `json:"member_id,omitempty" validate:"omitempty,uuid"`
	TrainerID *string `json:"trainer_id,omitempty" validate:"omitempty,uuid"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed missed"`
	DateFrom  *string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo    *string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Q         *string `json:"q,omitempty" validate:"omitempty,max=100"`
	Offset    int     `json:"offset" validate:"min=0"`
	Limit     int     `json:"limit" validate:"min=1,max=100"`
}

// GetTrainerAvailabilityQuery - запрос свободных слотов тренера на дату.
type GetTrainerAvailabilityQuery struct {
	TrainerID string `json:"trainer_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ============================================
// Responses
// ============================================

// AppointmentDTO - представление записи для API.
type AppointmentDTO struct {
	ID            string    `json:"id"`
	MemberID      string    `json:"member_id"`
	TrainerID     string    `json:"trainer_id"`
	MembershipID  string    `json:"membership_id"`
	Date          string    `json:"date"` // "2006-01-02"
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	DisplayStatus string    `json:"display_status"` // upcoming | completed | missed | cancelled
	Location      string    `json:"location,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TimeSlotDTO - один свободный слот в расписании тренера.
type TimeSlotDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TrainerAvailabilityDTO - свободные слоты тренера на дату.
type TrainerAvailabilityDTO struct {
	TrainerID string        `json:"trainer_id"`
	Date      string        `json:"date"`
	Available bool          `json:"available"`
	Slots     []TimeSlotDTO `json:"slots"`
}
