package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// Mock PaymentRepository
type mockPaymentRepo struct {
	saveFunc                func(ctx context.Context, p *entities.Payment) error
	findByIDFunc            func(ctx context.Context, id uuid.UUID) (*entities.Payment, error)
	findByTransactionIDFunc func(ctx context.Context, transactionID string) (*entities.Payment, error)
	completeIfPendingFunc   func(ctx context.Context, transactionID, payType string, rawPayload []byte, now time.Time) (bool, error)
	markFailedFunc          func(ctx context.Context, transactionID string, rawPayload []byte, now time.Time) error
}

func (m *mockPaymentRepo) Save(ctx context.Context, p *entities.Payment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*entities.Payment, error) {
	if m.findByTransactionIDFunc != nil {
		return m.findByTransactionIDFunc(ctx, transactionID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockPaymentRepo) CompleteIfPending(ctx context.Context, transactionID, payType string, rawPayload []byte, now time.Time) (bool, error) {
	if m.completeIfPendingFunc != nil {
		return m.completeIfPendingFunc(ctx, transactionID, payType, rawPayload, now)
	}
	return true, nil
}

func (m *mockPaymentRepo) MarkFailed(ctx context.Context, transactionID string, rawPayload []byte, now time.Time) error {
	if m.markFailedFunc != nil {
		return m.markFailedFunc(ctx, transactionID, rawPayload, now)
	}
	return nil
}

func (m *mockPaymentRepo) FindByMember(ctx context.Context, memberID uuid.UUID, offset, limit int) ([]*entities.Payment, error) {
	return nil, nil
}

// Mock MembershipRepository
type mockMembershipRepo struct {
	saveFunc                 func(ctx context.Context, m *entities.Membership) error
	findPendingByPaymentFunc func(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error)
	findByPaymentFunc        func(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error)
}

func (m *mockMembershipRepo) Save(ctx context.Context, membership *entities.Membership) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, membership)
	}
	return nil
}

func (m *mockMembershipRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindActiveByMember(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	if m.findPendingByPaymentFunc != nil {
		return m.findPendingByPaymentFunc(ctx, paymentID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	if m.findByPaymentFunc != nil {
		return m.findByPaymentFunc(ctx, paymentID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) ReserveSession(ctx context.Context, membershipID uuid.UUID) error {
	return nil
}

func (m *mockMembershipRepo) ReleaseSession(ctx context.Context, membershipID uuid.UUID) error {
	return nil
}

func (m *mockMembershipRepo) ResetMonthlyQuota(ctx context.Context, membershipID uuid.UUID, sessions int, now time.Time) (bool, error) {
	return false, nil
}

func (m *mockMembershipRepo) SweepExpired(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockMembershipRepo) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Mock PackageRepository
type mockPackageRepo struct {
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error)
}

func (m *mockPackageRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockPackageRepo) ListActive(ctx context.Context) ([]*entities.GymPackage, error) {
	return nil, nil
}

// Mock PromotionRepository
type mockPromotionRepo struct {
	findRunningFunc func(ctx context.Context, now time.Time) ([]*entities.Promotion, error)
}

func (m *mockPromotionRepo) FindRunning(ctx context.Context, now time.Time) ([]*entities.Promotion, error) {
	if m.findRunningFunc != nil {
		return m.findRunningFunc(ctx, now)
	}
	return nil, nil
}

// Mock PaymentGateway
type mockGateway struct {
	createPaymentFunc  func(ctx context.Context, params ports.CreatePaymentParams) (*ports.CreatePaymentResult, error)
	verifyCallbackFunc func(body []byte) (*ports.CallbackPayload, error)
}

func (m *mockGateway) CreatePayment(ctx context.Context, params ports.CreatePaymentParams) (*ports.CreatePaymentResult, error) {
	if m.createPaymentFunc != nil {
		return m.createPaymentFunc(ctx, params)
	}
	return &ports.CreatePaymentResult{PayURL: "https://pay.example/redirect", ResultCode: 0}, nil
}

func (m *mockGateway) VerifyCallback(body []byte) (*ports.CallbackPayload, error) {
	if m.verifyCallbackFunc != nil {
		return m.verifyCallbackFunc(body)
	}
	return nil, domainErrors.ErrInvalidSignature
}

// Mock EventPublisher собирает опубликованные события
type mockEventPublisher struct {
	publishedEvents []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.publishedEvents = append(m.publishedEvents, event)
	return nil
}

func (m *mockEventPublisher) PublishBatch(ctx context.Context, eventList []events.DomainEvent) error {
	m.publishedEvents = append(m.publishedEvents, eventList...)
	return nil
}

func (m *mockEventPublisher) hasEventType(eventType string) bool {
	for _, e := range m.publishedEvents {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}

// Mock UnitOfWork выполняет fn без настоящей транзакции
type mockUoW struct{}

func (m *mockUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (m *mockUoW) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

// Test fixtures

func testPackage(t *testing.T, priceUnits int64, status entities.PackageStatus) *entities.GymPackage {
	t.Helper()
	price, err := valueobjects.NewMoney(priceUnits, valueobjects.VND)
	if err != nil {
		t.Fatal(err)
	}
	return entities.ReconstructGymPackage(
		uuid.New(), "Standard 3 months", price, 90, 4,
		status, time.Now(), time.Now(),
	)
}

func pendingTestPayment(t *testing.T, transactionID string, amountUnits int64) *entities.Payment {
	t.Helper()
	amount, err := valueobjects.NewMoney(amountUnits, valueobjects.VND)
	if err != nil {
		t.Fatal(err)
	}
	p, err := entities.NewPayment(uuid.New(), uuid.New(), amount, transactionID, nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
