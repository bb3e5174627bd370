// Package membership - фоновые задачи жизненного цикла абонементов.
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// StalePendingTTL - сколько живёт pending-абонемент без завершённого платежа,
// прежде чем его вычистит фоновая задача.
const StalePendingTTL = 24 * time.Hour

// SweepMembershipsUseCase - фоновая задача жизненного цикла абонементов:
// переводит просроченные active-абонементы в expired и удаляет брошенные
// pending-checkout'ы. Оба условия входят в сами UPDATE/DELETE, повторный
// запуск идемпотентен.
type SweepMembershipsUseCase struct {
	membershipRepo ports.MembershipRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
	clock          ports.Clock
}

// NewSweepMembershipsUseCase создаёт новый use case.
func NewSweepMembershipsUseCase(
	membershipRepo ports.MembershipRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *SweepMembershipsUseCase {
	return &SweepMembershipsUseCase{
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
		clock:          clock,
	}
}

// SweepReport - итог одного прохода.
type SweepReport struct {
	Expired      int
	StalePending int64
}

// Execute выполняет один проход.
func (uc *SweepMembershipsUseCase) Execute(ctx context.Context) (*SweepReport, error) {
	now := uc.clock.Now()
	report := &SweepReport{}

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		ids, err := uc.membershipRepo.SweepExpired(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to sweep expired memberships: %w", err)
		}

		eventList := make([]events.DomainEvent, len(ids))
		for i, id := range ids {
			eventList[i] = events.NewMembershipExpired(id, now)
		}
		if len(eventList) > 0 {
			if err := uc.eventPublisher.PublishBatch(txCtx, eventList); err != nil {
				return fmt.Errorf("failed to publish events: %w", err)
			}
		}
		report.Expired = len(ids)

		stale, err := uc.membershipRepo.DeleteStalePending(txCtx, now.Add(-StalePendingTTL))
		if err != nil {
			return fmt.Errorf("failed to delete stale pending memberships: %w", err)
		}
		report.StalePending = stale

		return nil
	})

	if err != nil {
		return nil, err
	}
	return report, nil
}
