// Package booking - RescheduleAppointment use case.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// RescheduleAppointmentUseCase - use case переноса записи.
//
// Перенос не трогает квоту: сессия остаётся списанной, меняется только
// окно. Новое окно проходит те же проверки, что и при бронировании.
type RescheduleAppointmentUseCase struct {
	appointmentRepo ports.AppointmentRepository
	trainerRepo     ports.TrainerRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	clock           ports.Clock
}

// NewRescheduleAppointmentUseCase создаёт новый use case.
func NewRescheduleAppointmentUseCase(
	appointmentRepo ports.AppointmentRepository,
	trainerRepo ports.TrainerRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *RescheduleAppointmentUseCase {
	return &RescheduleAppointmentUseCase{
		appointmentRepo: appointmentRepo,
		trainerRepo:     trainerRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		clock:           clock,
	}
}

// Execute выполняет перенос.
func (uc *RescheduleAppointmentUseCase) Execute(ctx context.Context, cmd dtos.RescheduleAppointmentCommand) (*dtos.AppointmentDTO, error) {
	appointmentID, err := uuid.Parse(cmd.AppointmentID)
	if err != nil {
		return nil, errors.ValidationError{Field: "appointment_id", Message: "invalid UUID"}
	}
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}
	newDate, err := time.Parse(dtos.DateLayout, cmd.Date)
	if err != nil {
		return nil, errors.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	newWindow, err := valueobjects.ParseTimeWindow(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, errors.ValidationError{Field: "start_time", Message: err.Error()}
	}

	now := uc.clock.Now()
	var result *dtos.AppointmentDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		appointment, err := uc.appointmentRepo.FindByID(txCtx, appointmentID)
		if err != nil {
			return err
		}
		if !appointment.IsOwnedBy(memberID) {
			return errors.ErrForbidden
		}

		trainer, err := uc.trainerRepo.FindByID(txCtx, appointment.TrainerID())
		if err != nil {
			return fmt.Errorf("failed to load trainer: %w", err)
		}
		if !trainer.WorksWindow(newDate, newWindow) {
			return errors.ErrSlotUnavailable
		}

		// Конфликт считаем без самой записи, иначе перенос в соседнее
		// время того же дня конфликтовал бы сам с собой.
		overlapping, err := uc.appointmentRepo.CountOverlapping(txCtx, appointment.TrainerID(), newDate, newWindow, appointment.ID())
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if overlapping > 0 {
			return errors.ErrBookingConflict
		}

		// Entity проверяет терминальность и окно уведомления.
		if err := appointment.Reschedule(now, newDate, newWindow); err != nil {
			return err
		}

		// Уникальный индекс ловит конкурента, успевшего между проверкой
		// и UPDATE.
		if err := uc.appointmentRepo.Update(txCtx, appointment); err != nil {
			return err
		}

		event := events.NewAppointmentRescheduled(
			appointment.ID(), appointment.TrainerID(),
			newDate, newWindow.Start().String(), newWindow.End().String(),
		)
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
