// Package booking - ConfirmAppointment use case (персонал).
package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// ConfirmAppointmentUseCase - use case подтверждения записи персоналом.
type ConfirmAppointmentUseCase struct {
	appointmentRepo ports.AppointmentRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	clock           ports.Clock
}

// NewConfirmAppointmentUseCase создаёт новый use case.
func NewConfirmAppointmentUseCase(
	appointmentRepo ports.AppointmentRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *ConfirmAppointmentUseCase {
	return &ConfirmAppointmentUseCase{
		appointmentRepo: appointmentRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		clock:           clock,
	}
}

// Execute выполняет подтверждение.
func (uc *ConfirmAppointmentUseCase) Execute(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error) {
	appointmentID, err := uuid.Parse(cmd.AppointmentID)
	if err != nil {
		return nil, errors.ValidationError{Field: "appointment_id", Message: "invalid UUID"}
	}

	now := uc.clock.Now()
	var result *dtos.AppointmentDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		appointment, err := uc.appointmentRepo.FindByID(txCtx, appointmentID)
		if err != nil {
			return err
		}

		if err := appointment.Confirm(); err != nil {
			return err
		}

		if err := uc.appointmentRepo.Update(txCtx, appointment); err != nil {
			return fmt.Errorf("failed to save appointment: %w", err)
		}

		event := events.NewAppointmentConfirmed(appointment.ID(), appointment.MemberID(), appointment.TrainerID())
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		dto := dtos.ToAppointmentDTO(appointment, now)
		result = &dto
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}
