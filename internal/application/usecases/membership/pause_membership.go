// Package membership - PauseMembership / ResumeMembership use cases.
package membership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// PauseMembershipUseCase - use case приостановки абонемента участником.
type PauseMembershipUseCase struct {
	membershipRepo ports.MembershipRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewPauseMembershipUseCase создаёт новый use case.
func NewPauseMembershipUseCase(
	membershipRepo ports.MembershipRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *PauseMembershipUseCase {
	return &PauseMembershipUseCase{
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет приостановку.
func (uc *PauseMembershipUseCase) Execute(ctx context.Context, cmd dtos.PauseMembershipCommand) (*dtos.MembershipDTO, error) {
	membershipID, err := uuid.Parse(cmd.MembershipID)
	if err != nil {
		return nil, errors.ValidationError{Field: "membership_id", Message: "invalid UUID"}
	}
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}

	var result *dtos.MembershipDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		membership, err := uc.membershipRepo.FindByID(txCtx, membershipID)
		if err != nil {
			return err
		}
		if membership.MemberID() != memberID {
			return errors.ErrForbidden
		}

		if err := membership.Pause(); err != nil {
			return err
		}
		if err := uc.membershipRepo.Save(txCtx, membership); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}

		event := events.NewMembershipPaused(membership.ID(), memberID)
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		dto := dtos.ToMembershipDTO(membership)
		result = &dto
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResumeMembershipUseCase - use case возобновления приостановленного абонемента.
type ResumeMembershipUseCase struct {
	membershipRepo ports.MembershipRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewResumeMembershipUseCase создаёт новый use case.
func NewResumeMembershipUseCase(
	membershipRepo ports.MembershipRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *ResumeMembershipUseCase {
	return &ResumeMembershipUseCase{
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет возобновление.
func (uc *ResumeMembershipUseCase) Execute(ctx context.Context, cmd dtos.ResumeMembershipCommand) (*dtos.MembershipDTO, error) {
	membershipID, err := uuid.Parse(cmd.MembershipID)
	if err != nil {
		return nil, errors.ValidationError{Field: "membership_id", Message: "invalid UUID"}
	}
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}

	var result *dtos.MembershipDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		membership, err := uc.membershipRepo.FindByID(txCtx, membershipID)
		if err != nil {
			return err
		}
		if membership.MemberID() != memberID {
			return errors.ErrForbidden
		}

		if err := membership.Resume(); err != nil {
			return err
		}
		if err := uc.membershipRepo.Save(txCtx, membership); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}

		event := events.NewMembershipResumed(membership.ID(), memberID)
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		dto := dtos.ToMembershipDTO(membership)
		result = &dto
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}
