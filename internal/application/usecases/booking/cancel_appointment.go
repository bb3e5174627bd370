// Package booking - CancelAppointment use case.
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

// CancelAppointmentUseCase - use case отмены записи участником.
//
// Правило 24 часов живёт в entity (Appointment.Cancel); use case добавляет
// проверку владельца и возврат сессии в квоту.
type CancelAppointmentUseCase struct {
	appointmentRepo ports.AppointmentRepository
	membershipRepo  ports.MembershipRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	clock           ports.Clock
}

// NewCancelAppointmentUseCase создаёт новый use case.
func NewCancelAppointmentUseCase(
	appointmentRepo ports.AppointmentRepository,
	membershipRepo ports.MembershipRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *CancelAppointmentUseCase {
	return &CancelAppointmentUseCase{
		appointmentRepo: appointmentRepo,
		membershipRepo:  membershipRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		clock:           clock,
	}
}

// Execute выполняет отмену.
func (uc *CancelAppointmentUseCase) Execute(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error) {
	appointmentID, err := uuid.Parse(cmd.AppointmentID)
	if err != nil {
		return nil, errors.ValidationError{Field: "appointment_id", Message: "invalid UUID"}
	}
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
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

		// Entity проверяет терминальность и окно в 24 часа.
		if err := appointment.Cancel(now); err != nil {
			return err
		}

		// Возврат сессии. ErrNoSessionsUsed возможен, если между
		// бронированием и отменой прошёл месячный сброс; отмена при
		// этом всё равно проходит, просто без возврата.
		refunded := true
		if err := uc.membershipRepo.ReleaseSession(txCtx, appointment.MembershipID()); err != nil {
			if !errors.Is(err, errors.ErrNoSessionsUsed) {
				return fmt.Errorf("failed to release session: %w", err)
			}
			refunded = false
		}

		if err := uc.appointmentRepo.Update(txCtx, appointment); err != nil {
			return fmt.Errorf("failed to save appointment: %w", err)
		}

		event := events.NewAppointmentCancelled(
			appointment.ID(), memberID, appointment.TrainerID(),
			appointment.MembershipID(), refunded,
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
