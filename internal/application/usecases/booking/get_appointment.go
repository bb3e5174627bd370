// Package booking - read-only use cases записей.
package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// GetAppointmentUseCase - use case чтения одной записи.
type GetAppointmentUseCase struct {
	appointmentRepo ports.AppointmentRepository
	clock           ports.Clock
}

// NewGetAppointmentUseCase создаёт новый use case.
func NewGetAppointmentUseCase(appointmentRepo ports.AppointmentRepository, clock ports.Clock) *GetAppointmentUseCase {
	return &GetAppointmentUseCase{appointmentRepo: appointmentRepo, clock: clock}
}

// Execute возвращает запись с display_status на текущий момент.
func (uc *GetAppointmentUseCase) Execute(ctx context.Context, query dtos.GetAppointmentQuery) (*dtos.AppointmentDTO, error) {
	appointmentID, err := uuid.Parse(query.AppointmentID)
	if err != nil {
		return nil, errors.ValidationError{Field: "appointment_id", Message: "invalid UUID"}
	}

	appointment, err := uc.appointmentRepo.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToAppointmentDTO(appointment, uc.clock.Now())
	return &dto, nil
}
