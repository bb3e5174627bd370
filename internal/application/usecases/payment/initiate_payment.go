// Package payment - use cases оплаты пакетов через платёжный шлюз.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// InitiatePaymentUseCase - use case оформления покупки пакета.
//
// Сценарий:
// 1. Загрузить пакет (должен быть продаваемым)
// 2. Выбрать лучшую действующую акцию и зафиксировать её снимок
// 3. Создать платёж в шлюзе, получить pay_url
// 4. В одной транзакции сохранить pending-платёж и pending-абонемент
// 5. Опубликовать PaymentInitiated
//
// Абонемент остаётся pending до callback'а шлюза; брошенные checkout'ы
// вычищает фоновая задача.
type InitiatePaymentUseCase struct {
	paymentRepo    ports.PaymentRepository
	membershipRepo ports.MembershipRepository
	packageRepo    ports.PackageRepository
	promotionRepo  ports.PromotionRepository
	gateway        ports.PaymentGateway
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
	clock          ports.Clock
}

// NewInitiatePaymentUseCase создаёт новый use case.
func NewInitiatePaymentUseCase(
	paymentRepo ports.PaymentRepository,
	membershipRepo ports.MembershipRepository,
	packageRepo ports.PackageRepository,
	promotionRepo ports.PromotionRepository,
	gateway ports.PaymentGateway,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *InitiatePaymentUseCase {
	return &InitiatePaymentUseCase{
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		packageRepo:    packageRepo,
		promotionRepo:  promotionRepo,
		gateway:        gateway,
		eventPublisher: eventPublisher,
		uow:            uow,
		clock:          clock,
	}
}

// checkoutExtraData уезжает в шлюз base64-кодированным и возвращается в IPN.
type checkoutExtraData struct {
	MemberID  string `json:"member_id"`
	PackageID string `json:"package_id"`
}

// Execute выполняет оформление платежа.
func (uc *InitiatePaymentUseCase) Execute(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error) {
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}
	packageID, err := uuid.Parse(cmd.PackageID)
	if err != nil {
		return nil, errors.ValidationError{Field: "package_id", Message: "invalid UUID"}
	}

	now := uc.clock.Now()

	// 1. Пакет
	pkg, err := uc.packageRepo.FindByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive() {
		return nil, errors.ErrPackageNotActive
	}

	// 2. Акция и итоговая сумма
	amount := pkg.Price()
	var snapshot *entities.PromotionSnapshot
	promotions, err := uc.promotionRepo.FindRunning(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotions: %w", err)
	}
	if best := entities.BestPromotion(promotions, packageID, now); best != nil {
		amount, err = amount.ApplyDiscountPercent(best.DiscountPercent())
		if err != nil {
			return nil, fmt.Errorf("failed to apply discount: %w", err)
		}
		snapshot = &entities.PromotionSnapshot{
			PromotionID:     best.ID(),
			Name:            best.Name(),
			DiscountPercent: best.DiscountPercent(),
		}
	}

	// 3. Платёж в шлюзе
	transactionID := fmt.Sprintf("GYM-%s", uuid.New())
	extraData, _ := json.Marshal(checkoutExtraData{
		MemberID:  memberID.String(),
		PackageID: packageID.String(),
	})

	gwResult, err := uc.gateway.CreatePayment(ctx, ports.CreatePaymentParams{
		TransactionID: transactionID,
		AmountUnits:   amount.Units(),
		OrderInfo:     fmt.Sprintf("Gym package: %s", pkg.Name()),
		ExtraData:     extraData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway payment: %w", err)
	}
	if gwResult.ResultCode != 0 {
		return nil, errors.NewDomainError(
			"GATEWAY_REJECTED",
			fmt.Sprintf("gateway rejected payment: %s", gwResult.Message),
			errors.ErrGatewayResult,
		)
	}

	// 4. Pending-платёж и pending-абонемент в одной транзакции
	payment, err := entities.NewPayment(memberID, packageID, amount, transactionID, snapshot)
	if err != nil {
		return nil, err
	}

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.paymentRepo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		membership := entities.NewPendingMembership(memberID, packageID, payment.ID())
		if err := uc.membershipRepo.Save(txCtx, membership); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}

		event := events.NewPaymentInitiated(payment.ID(), memberID, packageID, transactionID, amount.Units())
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dtos.InitiatePaymentDTO{
		PaymentID:     payment.ID().String(),
		TransactionID: transactionID,
		Amount:        amount.Units(),
		Currency:      amount.Currency().Code(),
		PayURL:        gwResult.PayURL,
		Deeplink:      gwResult.Deeplink,
		QRCodeURL:     gwResult.QRCodeURL,
	}, nil
}
