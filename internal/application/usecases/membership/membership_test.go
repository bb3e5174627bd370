package membership

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// Mock MembershipRepository
type mockMembershipRepo struct {
	findByIDFunc           func(ctx context.Context, id uuid.UUID) (*entities.Membership, error)
	findActiveByMemberFunc func(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error)
	saveFunc               func(ctx context.Context, m *entities.Membership) error
	resetMonthlyQuotaFunc  func(ctx context.Context, id uuid.UUID, sessions int, now time.Time) (bool, error)
	sweepExpiredFunc       func(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
	deleteStalePendingFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockMembershipRepo) Save(ctx context.Context, membership *entities.Membership) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, membership)
	}
	return nil
}

func (m *mockMembershipRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindActiveByMember(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error) {
	if m.findActiveByMemberFunc != nil {
		return m.findActiveByMemberFunc(ctx, memberID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) ReserveSession(ctx context.Context, membershipID uuid.UUID) error {
	return nil
}

func (m *mockMembershipRepo) ReleaseSession(ctx context.Context, membershipID uuid.UUID) error {
	return nil
}

func (m *mockMembershipRepo) ResetMonthlyQuota(ctx context.Context, id uuid.UUID, sessions int, now time.Time) (bool, error) {
	if m.resetMonthlyQuotaFunc != nil {
		return m.resetMonthlyQuotaFunc(ctx, id, sessions, now)
	}
	return false, nil
}

func (m *mockMembershipRepo) SweepExpired(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	if m.sweepExpiredFunc != nil {
		return m.sweepExpiredFunc(ctx, asOf)
	}
	return nil, nil
}

func (m *mockMembershipRepo) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteStalePendingFunc != nil {
		return m.deleteStalePendingFunc(ctx, cutoff)
	}
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

type mockUoW struct{}

func (m *mockUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (m *mockUoW) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

func activeMembership(memberID uuid.UUID, sessions int) *entities.Membership {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return entities.NewActiveMembership(memberID, uuid.New(), uuid.New(), start, start.AddDate(0, 3, 0), sessions)
}

// TestGetActiveMembershipUseCase_MonthlyReset тестирует lazy-сброс на чтении
func TestGetActiveMembershipUseCase_MonthlyReset(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()
	membership := activeMembership(memberID, 1) // reset anchor = 1 марта
	aprilClock := ports.FixedClock{Time: time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)}

	price, _ := valueobjects.NewMoney(500000, valueobjects.VND)
	pkg := entities.ReconstructGymPackage(
		membership.PackageID(), "Standard", price, 90, 4,
		entities.PackageStatusActive, time.Now(), time.Now(),
	)

	var resetCalled bool
	repo := &mockMembershipRepo{
		findActiveByMemberFunc: func(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
			return membership, nil
		},
		resetMonthlyQuotaFunc: func(ctx context.Context, id uuid.UUID, sessions int, now time.Time) (bool, error) {
			resetCalled = true
			return true, nil
		},
	}
	packageRepo := &mockPackageRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
			return pkg, nil
		},
	}

	useCase := NewGetActiveMembershipUseCase(repo, packageRepo, aprilClock)

	result, err := useCase.Execute(ctx, dtos.GetActiveMembershipQuery{MemberID: memberID.String()})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resetCalled {
		t.Error("Expected monthly reset on read")
	}
	if result.AvailableSessions != 4 {
		t.Errorf("AvailableSessions = %d, want 4", result.AvailableSessions)
	}
}

// TestGetActiveMembershipUseCase_NoResetSameMonth тестирует чтение в том же месяце
func TestGetActiveMembershipUseCase_NoResetSameMonth(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()
	membership := activeMembership(memberID, 2)
	marchClock := ports.FixedClock{Time: time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)}

	resetCalls := 0
	repo := &mockMembershipRepo{
		findActiveByMemberFunc: func(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
			return membership, nil
		},
		resetMonthlyQuotaFunc: func(ctx context.Context, id uuid.UUID, sessions int, now time.Time) (bool, error) {
			resetCalls++
			return true, nil
		},
	}

	useCase := NewGetActiveMembershipUseCase(repo, &mockPackageRepo{}, marchClock)

	result, err := useCase.Execute(ctx, dtos.GetActiveMembershipQuery{MemberID: memberID.String()})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resetCalls != 0 {
		t.Error("No reset expected within the same month")
	}
	if result.AvailableSessions != 2 {
		t.Errorf("AvailableSessions = %d, want 2", result.AvailableSessions)
	}
}

// TestPauseMembershipUseCase тестирует pause/resume с проверкой владельца
func TestPauseMembershipUseCase(t *testing.T) {
	ctx := context.Background()
	memberID := uuid.New()
	membership := activeMembership(memberID, 4)

	repo := &mockMembershipRepo{
		findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
			return membership, nil
		},
	}
	publisher := &mockEventPublisher{}

	pause := NewPauseMembershipUseCase(repo, publisher, &mockUoW{})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := pause.Execute(ctx, dtos.PauseMembershipCommand{
			MembershipID: membership.ID().String(),
			MemberID:     uuid.New().String(),
		})
		if !domainErrors.IsForbidden(err) {
			t.Fatalf("Execute() error = %v, want forbidden", err)
		}
	})

	t.Run("pause then resume", func(t *testing.T) {
		result, err := pause.Execute(ctx, dtos.PauseMembershipCommand{
			MembershipID: membership.ID().String(),
			MemberID:     memberID.String(),
		})
		if err != nil {
			t.Fatalf("pause error = %v", err)
		}
		if result.Status != string(entities.MembershipStatusPaused) {
			t.Errorf("Status = %s, want paused", result.Status)
		}

		resume := NewResumeMembershipUseCase(repo, publisher, &mockUoW{})
		result, err = resume.Execute(ctx, dtos.ResumeMembershipCommand{
			MembershipID: membership.ID().String(),
			MemberID:     memberID.String(),
		})
		if err != nil {
			t.Fatalf("resume error = %v", err)
		}
		if result.Status != string(entities.MembershipStatusActive) {
			t.Errorf("Status = %s, want active", result.Status)
		}
	})
}

// TestSweepMembershipsUseCase тестирует проход фоновой задачи
func TestSweepMembershipsUseCase(t *testing.T) {
	ctx := context.Background()
	clock := ports.FixedClock{Time: time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)}
	expiredIDs := []uuid.UUID{uuid.New(), uuid.New()}

	repo := &mockMembershipRepo{
		sweepExpiredFunc: func(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
			return expiredIDs, nil
		},
		deleteStalePendingFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			want := clock.Time.Add(-StalePendingTTL)
			if !cutoff.Equal(want) {
				t.Errorf("cutoff = %v, want %v", cutoff, want)
			}
			return 5, nil
		},
	}
	publisher := &mockEventPublisher{}

	useCase := NewSweepMembershipsUseCase(repo, publisher, &mockUoW{}, clock)

	report, err := useCase.Execute(ctx)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Expired != 2 {
		t.Errorf("Expired = %d, want 2", report.Expired)
	}
	if report.StalePending != 5 {
		t.Errorf("StalePending = %d, want 5", report.StalePending)
	}
	if len(publisher.publishedEvents) != 2 {
		t.Errorf("Expected 2 events, got %d", len(publisher.publishedEvents))
	}
}
