// Package booking - SweepMissedAppointments use case (фоновая задача).
package booking

import (
	"context"
	"fmt"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// SweepMissedAppointmentsUseCase переводит просроченные pending/confirmed
// записи в missed. Запускается планировщиком; условие по времени входит в
// сам UPDATE, поэтому повторный запуск ничего не трогает.
type SweepMissedAppointmentsUseCase struct {
	appointmentRepo ports.AppointmentRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	clock           ports.Clock
}

// NewSweepMissedAppointmentsUseCase создаёт новый use case.
func NewSweepMissedAppointmentsUseCase(
	appointmentRepo ports.AppointmentRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *SweepMissedAppointmentsUseCase {
	return &SweepMissedAppointmentsUseCase{
		appointmentRepo: appointmentRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		clock:           clock,
	}
}

// Execute выполняет один проход. Возвращает количество затронутых записей.
func (uc *SweepMissedAppointmentsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.clock.Now()
	var swept int

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		ids, err := uc.appointmentRepo.SweepMissed(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to sweep appointments: %w", err)
		}

		eventList := make([]events.DomainEvent, len(ids))
		for i, id := range ids {
			eventList[i] = events.NewAppointmentMissed(id, now)
		}
		if len(eventList) > 0 {
			if err := uc.eventPublisher.PublishBatch(txCtx, eventList); err != nil {
				return fmt.Errorf("failed to publish events: %w", err)
			}
		}

		swept = len(ids)
		return nil
	})

	if err != nil {
		return 0, err
	}
	return swept, nil
}
