package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

var paymentClock = ports.FixedClock{Time: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}

// TestInitiatePaymentUseCase_Success тестирует оформление без акций
func TestInitiatePaymentUseCase_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	memberID := uuid.New()
	pkg := testPackage(t, 500000, entities.PackageStatusActive)

	var savedPayment *entities.Payment
	var savedMembership *entities.Membership

	paymentRepo := &mockPaymentRepo{
		saveFunc: func(ctx context.Context, p *entities.Payment) error {
			savedPayment = p
			return nil
		},
	}
	membershipRepo := &mockMembershipRepo{
		saveFunc: func(ctx context.Context, m *entities.Membership) error {
			savedMembership = m
			return nil
		},
	}
	packageRepo := &mockPackageRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
			return pkg, nil
		},
	}
	gateway := &mockGateway{
		createPaymentFunc: func(ctx context.Context, params ports.CreatePaymentParams) (*ports.CreatePaymentResult, error) {
			if params.AmountUnits != 500000 {
				t.Errorf("gateway amount = %d, want 500000", params.AmountUnits)
			}
			return &ports.CreatePaymentResult{PayURL: "https://pay.example/redirect"}, nil
		},
	}
	publisher := &mockEventPublisher{}

	useCase := NewInitiatePaymentUseCase(
		paymentRepo, membershipRepo, packageRepo, &mockPromotionRepo{},
		gateway, publisher, &mockUoW{}, paymentClock,
	)

	// Act
	result, err := useCase.Execute(ctx, dtos.InitiatePaymentCommand{
		MemberID:  memberID.String(),
		PackageID: pkg.ID().String(),
	})

	// Assert
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.PayURL != "https://pay.example/redirect" {
		t.Errorf("PayURL = %q", result.PayURL)
	}
	if result.Amount != 500000 {
		t.Errorf("Amount = %d, want 500000", result.Amount)
	}
	if savedPayment == nil {
		t.Fatal("Expected payment to be saved")
	}
	if savedPayment.Status() != entities.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", savedPayment.Status())
	}
	if savedMembership == nil {
		t.Fatal("Expected pending membership to be saved")
	}
	if savedMembership.Status() != entities.MembershipStatusPending {
		t.Errorf("membership status = %s, want pending", savedMembership.Status())
	}
	if len(publisher.publishedEvents) != 1 {
		t.Errorf("Expected 1 event, got %d", len(publisher.publishedEvents))
	}
}

// TestInitiatePaymentUseCase_PromotionApplied тестирует снимок акции и скидку
func TestInitiatePaymentUseCase_PromotionApplied(t *testing.T) {
	ctx := context.Background()
	pkg := testPackage(t, 500000, entities.PackageStatusActive)
	now := paymentClock.Time

	promo := entities.ReconstructPromotion(
		uuid.New(), "Spring Sale", 20, nil, true,
		now.Add(-time.Hour), now.Add(time.Hour), now.Add(-48*time.Hour),
	)

	var savedPayment *entities.Payment
	paymentRepo := &mockPaymentRepo{
		saveFunc: func(ctx context.Context, p *entities.Payment) error {
			savedPayment = p
			return nil
		},
	}
	packageRepo := &mockPackageRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
			return pkg, nil
		},
	}
	promotionRepo := &mockPromotionRepo{
		findRunningFunc: func(ctx context.Context, now time.Time) ([]*entities.Promotion, error) {
			return []*entities.Promotion{promo}, nil
		},
	}

	useCase := NewInitiatePaymentUseCase(
		paymentRepo, &mockMembershipRepo{}, packageRepo, promotionRepo,
		&mockGateway{}, &mockEventPublisher{}, &mockUoW{}, paymentClock,
	)

	result, err := useCase.Execute(ctx, dtos.InitiatePaymentCommand{
		MemberID:  uuid.New().String(),
		PackageID: pkg.ID().String(),
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Amount != 400000 {
		t.Errorf("Amount = %d, want 400000 (20%% off)", result.Amount)
	}

	snapshot := savedPayment.Promotion()
	if snapshot == nil {
		t.Fatal("Expected promotion snapshot on payment")
	}
	if snapshot.PromotionID != promo.ID() || snapshot.DiscountPercent != 20 {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

// TestInitiatePaymentUseCase_PackageInactive тестирует непродаваемый пакет
func TestInitiatePaymentUseCase_PackageInactive(t *testing.T) {
	ctx := context.Background()
	pkg := testPackage(t, 500000, entities.PackageStatusInactive)

	packageRepo := &mockPackageRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
			return pkg, nil
		},
	}

	useCase := NewInitiatePaymentUseCase(
		&mockPaymentRepo{}, &mockMembershipRepo{}, packageRepo, &mockPromotionRepo{},
		&mockGateway{}, &mockEventPublisher{}, &mockUoW{}, paymentClock,
	)

	_, err := useCase.Execute(ctx, dtos.InitiatePaymentCommand{
		MemberID:  uuid.New().String(),
		PackageID: pkg.ID().String(),
	})

	if !domainErrors.Is(err, domainErrors.ErrPackageNotActive) {
		t.Fatalf("Execute() error = %v, want ErrPackageNotActive", err)
	}
}

// TestInitiatePaymentUseCase_GatewayRejected тестирует отказ шлюза:
// ничего не сохраняется
func TestInitiatePaymentUseCase_GatewayRejected(t *testing.T) {
	ctx := context.Background()
	pkg := testPackage(t, 500000, entities.PackageStatusActive)

	saves := 0
	paymentRepo := &mockPaymentRepo{
		saveFunc: func(ctx context.Context, p *entities.Payment) error {
			saves++
			return nil
		},
	}
	packageRepo := &mockPackageRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
			return pkg, nil
		},
	}
	gateway := &mockGateway{
		createPaymentFunc: func(ctx context.Context, params ports.CreatePaymentParams) (*ports.CreatePaymentResult, error) {
			return &ports.CreatePaymentResult{ResultCode: 41, Message: "order exists"}, nil
		},
	}

	useCase := NewInitiatePaymentUseCase(
		paymentRepo, &mockMembershipRepo{}, packageRepo, &mockPromotionRepo{},
		gateway, &mockEventPublisher{}, &mockUoW{}, paymentClock,
	)

	_, err := useCase.Execute(ctx, dtos.InitiatePaymentCommand{
		MemberID:  uuid.New().String(),
		PackageID: pkg.ID().String(),
	})

	if err == nil {
		t.Fatal("Expected error on gateway rejection")
	}
	if saves != 0 {
		t.Error("Nothing should be persisted when the gateway rejects")
	}
}
