// Package payment - GetPaymentStatus use case.
package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// GetPaymentStatusUseCase - use case опроса статуса платежа клиентом.
// Фронтенд опрашивает его после редиректа, пока IPN не придёт.
type GetPaymentStatusUseCase struct {
	paymentRepo    ports.PaymentRepository
	membershipRepo ports.MembershipRepository
}

// NewGetPaymentStatusUseCase создаёт новый use case.
func NewGetPaymentStatusUseCase(
	paymentRepo ports.PaymentRepository,
	membershipRepo ports.MembershipRepository,
) *GetPaymentStatusUseCase {
	return &GetPaymentStatusUseCase{
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
	}
}

// Execute возвращает платёж. Для завершённого платежа к ответу
// прикладывается сводка активированного абонемента.
func (uc *GetPaymentStatusUseCase) Execute(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error) {
	paymentID, err := uuid.Parse(query.PaymentID)
	if err != nil {
		return nil, errors.ValidationError{Field: "payment_id", Message: "invalid UUID"}
	}

	payment, err := uc.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	// Пустой MemberID - запрос от персонала, владельца не проверяем.
	if query.MemberID != "" {
		memberID, err := uuid.Parse(query.MemberID)
		if err != nil {
			return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
		}
		if payment.MemberID() != memberID {
			return nil, errors.ErrForbidden
		}
	}

	dto := dtos.ToPaymentDTO(payment)

	if payment.Status() == entities.PaymentStatusCompleted {
		membership, err := uc.membershipRepo.FindByPayment(ctx, payment.ID())
		switch {
		case err == nil:
			summary := dtos.ToMembershipSummaryDTO(membership)
			dto.Membership = &summary
		case !errors.IsNotFound(err):
			return nil, err
		}
	}

	return &dto, nil
}
