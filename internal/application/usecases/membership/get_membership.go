// Package membership - use cases управления абонементами.
package membership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// GetActiveMembershipUseCase - use case чтения действующего абонемента.
//
// Lazy-сброс месячной квоты происходит и здесь: участник, открывший свой
// абонемент первого числа, видит восстановленную квоту, не дожидаясь
// первого бронирования.
type GetActiveMembershipUseCase struct {
	membershipRepo ports.MembershipRepository
	packageRepo    ports.PackageRepository
	clock          ports.Clock
}

// NewGetActiveMembershipUseCase создаёт новый use case.
func NewGetActiveMembershipUseCase(
	membershipRepo ports.MembershipRepository,
	packageRepo ports.PackageRepository,
	clock ports.Clock,
) *GetActiveMembershipUseCase {
	return &GetActiveMembershipUseCase{
		membershipRepo: membershipRepo,
		packageRepo:    packageRepo,
		clock:          clock,
	}
}

// Execute возвращает действующий абонемент участника.
func (uc *GetActiveMembershipUseCase) Execute(ctx context.Context, query dtos.GetActiveMembershipQuery) (*dtos.MembershipDTO, error) {
	memberID, err := uuid.Parse(query.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}

	membership, err := uc.membershipRepo.FindActiveByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if membership.NeedsMonthlyReset(now) {
		pkg, err := uc.packageRepo.FindByID(ctx, membership.PackageID())
		if err != nil {
			return nil, fmt.Errorf("failed to load package: %w", err)
		}
		reset, err := uc.membershipRepo.ResetMonthlyQuota(ctx, membership.ID(), pkg.TrainingSessions(), now)
		if err != nil {
			return nil, fmt.Errorf("failed to reset monthly quota: %w", err)
		}
		if reset {
			membership.ResetSessions(pkg.TrainingSessions(), now)
		}
	}

	dto := dtos.ToMembershipDTO(membership)
	return &dto, nil
}

// GetMembershipUseCase - use case чтения абонемента по ID.
//
// Участник видит только свой абонемент; персонал (пустой MemberID в запросе)
// видит любой.
type GetMembershipUseCase struct {
	membershipRepo ports.MembershipRepository
	packageRepo    ports.PackageRepository
	clock          ports.Clock
}

// NewGetMembershipUseCase создаёт новый use case.
func NewGetMembershipUseCase(
	membershipRepo ports.MembershipRepository,
	packageRepo ports.PackageRepository,
	clock ports.Clock,
) *GetMembershipUseCase {
	return &GetMembershipUseCase{
		membershipRepo: membershipRepo,
		packageRepo:    packageRepo,
		clock:          clock,
	}
}

// Execute возвращает абонемент по ID.
func (uc *GetMembershipUseCase) Execute(ctx context.Context, query dtos.GetMembershipQuery) (*dtos.MembershipDTO, error) {
	membershipID, err := uuid.Parse(query.MembershipID)
	if err != nil {
		return nil, errors.ValidationError{Field: "membership_id", Message: "invalid UUID"}
	}

	membership, err := uc.membershipRepo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	if query.MemberID != "" {
		memberID, err := uuid.Parse(query.MemberID)
		if err != nil {
			return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
		}
		if membership.MemberID() != memberID {
			return nil, errors.ErrForbidden
		}
	}

	now := uc.clock.Now()
	if membership.NeedsMonthlyReset(now) {
		pkg, err := uc.packageRepo.FindByID(ctx, membership.PackageID())
		if err != nil {
			return nil, fmt.Errorf("failed to load package: %w", err)
		}
		reset, err := uc.membershipRepo.ResetMonthlyQuota(ctx, membership.ID(), pkg.TrainingSessions(), now)
		if err != nil {
			return nil, fmt.Errorf("failed to reset monthly quota: %w", err)
		}
		if reset {
			membership.ResetSessions(pkg.TrainingSessions(), now)
		}
	}

	dto := dtos.ToMembershipDTO(membership)
	return &dto, nil
}
