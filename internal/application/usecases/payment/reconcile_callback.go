// Package payment - ReconcileCallback use case (IPN шлюза).
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// Reconcile outcome values.
const (
	OutcomeCompleted          = "completed"
	OutcomeFailed             = "failed"
	OutcomeReplay             = "replay"
	OutcomeUnknownTransaction = "unknown_transaction"
)

// ReconcileCallbackUseCase - use case сверки IPN callback'а шлюза.
//
// Сценарий (успешный callback):
// 1. Проверить подпись и разобрать тело (gateway-адаптер)
// 2. Найти платёж по transaction id, сверить сумму
// 3. Атомарно перевести платёж pending -> completed (CompleteIfPending)
// 4. Только победитель шага 3 активирует абонемент и публикует события
//
// Replay-защита: шаг 3 — условный UPDATE по status='pending'. Повторный
// callback получает false и выходит без побочных эффектов (OutcomeReplay).
type ReconcileCallbackUseCase struct {
	paymentRepo    ports.PaymentRepository
	membershipRepo ports.MembershipRepository
	packageRepo    ports.PackageRepository
	gateway        ports.PaymentGateway
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
	clock          ports.Clock
}

// NewReconcileCallbackUseCase создаёт новый use case.
func NewReconcileCallbackUseCase(
	paymentRepo ports.PaymentRepository,
	membershipRepo ports.MembershipRepository,
	packageRepo ports.PackageRepository,
	gateway ports.PaymentGateway,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *ReconcileCallbackUseCase {
	return &ReconcileCallbackUseCase{
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		packageRepo:    packageRepo,
		gateway:        gateway,
		eventPublisher: eventPublisher,
		uow:            uow,
		clock:          clock,
	}
}

// Execute выполняет сверку. Ошибка означает, что callback не был обработан
// (битая подпись, недоступная БД); HTTP-слой всё равно отвечает шлюзу 204.
func (uc *ReconcileCallbackUseCase) Execute(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error) {
	// 1. Подпись и разбор
	payload, err := uc.gateway.VerifyCallback(cmd.Body)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	result := &dtos.ReconcileResultDTO{TransactionID: payload.TransactionID}

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 2. Платёж и сверка суммы
		payment, err := uc.paymentRepo.FindByTransactionID(txCtx, payload.TransactionID)
		if err != nil {
			if errors.IsNotFound(err) {
				result.Outcome = OutcomeUnknownTransaction
				return nil
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if !payload.Succeeded() {
			if err := uc.paymentRepo.MarkFailed(txCtx, payload.TransactionID, payload.Raw, now); err != nil {
				return fmt.Errorf("failed to mark payment failed: %w", err)
			}
			event := events.NewPaymentFailed(payment.ID(), payload.TransactionID, payload.ResultCode, payload.Message)
			if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
				return fmt.Errorf("failed to publish event: %w", err)
			}
			result.Outcome = OutcomeFailed
			return nil
		}

		if payload.AmountUnits != payment.Amount().Units() {
			return errors.NewBusinessRuleViolation(
				"CALLBACK_AMOUNT_MISMATCH",
				"gateway amount does not match payment amount",
				map[string]interface{}{
					"expected": payment.Amount().Units(),
					"got":      payload.AmountUnits,
				},
			)
		}

		// 3. Атомарный переход pending -> completed
		won, err := uc.paymentRepo.CompleteIfPending(txCtx, payload.TransactionID, payload.PayType, payload.Raw, now)
		if err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}
		if !won {
			result.Outcome = OutcomeReplay
			return nil
		}

		// 4. Активация абонемента — только у победителя
		if err := uc.activateMembership(txCtx, payment, now); err != nil {
			return err
		}

		event := events.NewPaymentCompleted(payment.ID(), payment.MemberID(), payload.TransactionID, payload.PayType)
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		result.Outcome = OutcomeCompleted
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// activateMembership активирует pending-абонемент платежа либо, если тот не
// пережил checkout (вычищен как stale), создаёт активный заново.
func (uc *ReconcileCallbackUseCase) activateMembership(ctx context.Context, payment *entities.Payment, now time.Time) error {
	pkg, err := uc.packageRepo.FindByID(ctx, payment.PackageID())
	if err != nil {
		return fmt.Errorf("failed to load package: %w", err)
	}
	start, end := pkg.ValidityWindow(now)

	membership, err := uc.membershipRepo.FindPendingByPayment(ctx, payment.ID())
	if err != nil {
		if !errors.IsNotFound(err) {
			return fmt.Errorf("failed to load membership: %w", err)
		}
		membership = entities.NewActiveMembership(
			payment.MemberID(), payment.PackageID(), payment.ID(),
			start, end, pkg.TrainingSessions(),
		)
	} else {
		if err := membership.Activate(payment.ID(), start, end, pkg.TrainingSessions()); err != nil {
			return err
		}
	}

	if err := uc.membershipRepo.Save(ctx, membership); err != nil {
		return fmt.Errorf("failed to save membership: %w", err)
	}

	event := events.NewMembershipActivated(
		membership.ID(), payment.MemberID(), payment.PackageID(), payment.ID(),
		start, end,
	)
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
