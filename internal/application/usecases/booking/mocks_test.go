package booking

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

// Mock MembershipRepository
type mockMembershipRepo struct {
	reserveSessionFunc    func(ctx context.Context, membershipID uuid.UUID) error
	releaseSessionFunc    func(ctx context.Context, membershipID uuid.UUID) error
	resetMonthlyQuotaFunc func(ctx context.Context, membershipID uuid.UUID, sessions int, now time.Time) (bool, error)
	findByIDFunc          func(ctx context.Context, id uuid.UUID) (*entities.Membership, error)
}

func (m *mockMembershipRepo) Save(ctx context.Context, membership *entities.Membership) error {
	return nil
}

func (m *mockMembershipRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindActiveByMember(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockMembershipRepo) ReserveSession(ctx context.Context, membershipID uuid.UUID) error {
	if m.reserveSessionFunc != nil {
		return m.reserveSessionFunc(ctx, membershipID)
	}
	return nil
}

func (m *mockMembershipRepo) ReleaseSession(ctx context.Context, membershipID uuid.UUID) error {
	if m.releaseSessionFunc != nil {
		return m.releaseSessionFunc(ctx, membershipID)
	}
	return nil
}

func (m *mockMembershipRepo) ResetMonthlyQuota(ctx context.Context, membershipID uuid.UUID, sessions int, now time.Time) (bool, error) {
	if m.resetMonthlyQuotaFunc != nil {
		return m.resetMonthlyQuotaFunc(ctx, membershipID, sessions, now)
	}
	return false, nil
}

func (m *mockMembershipRepo) SweepExpired(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockMembershipRepo) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Mock AppointmentRepository
type mockAppointmentRepo struct {
	insertFunc               func(ctx context.Context, a *entities.Appointment) error
	updateFunc               func(ctx context.Context, a *entities.Appointment) error
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.Appointment, error)
	countOverlappingFunc     func(ctx context.Context, trainerID uuid.UUID, date time.Time, window valueobjects.TimeWindow, excludeID uuid.UUID) (int, error)
	findByTrainerAndDateFunc func(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]*entities.Appointment, error)
	listFunc                 func(ctx context.Context, filter ports.AppointmentFilter, offset, limit int) ([]*entities.Appointment, error)
	sweepMissedFunc          func(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}

func (m *mockAppointmentRepo) Insert(ctx context.Context, a *entities.Appointment) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, a)
	}
	return nil
}

func (m *mockAppointmentRepo) Update(ctx context.Context, a *entities.Appointment) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, a)
	}
	return nil
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockAppointmentRepo) CountOverlapping(ctx context.Context, trainerID uuid.UUID, date time.Time, window valueobjects.TimeWindow, excludeID uuid.UUID) (int, error) {
	if m.countOverlappingFunc != nil {
		return m.countOverlappingFunc(ctx, trainerID, date, window, excludeID)
	}
	return 0, nil
}

func (m *mockAppointmentRepo) FindByTrainerAndDate(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]*entities.Appointment, error) {
	if m.findByTrainerAndDateFunc != nil {
		return m.findByTrainerAndDateFunc(ctx, trainerID, date)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) List(ctx context.Context, filter ports.AppointmentFilter, offset, limit int) ([]*entities.Appointment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, offset, limit)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) SweepMissed(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	if m.sweepMissedFunc != nil {
		return m.sweepMissedFunc(ctx, asOf)
	}
	return nil, nil
}

// Mock TrainerRepository
type mockTrainerRepo struct {
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*entities.Trainer, error)
	saveFunc     func(ctx context.Context, trainer *entities.Trainer) error
}

func (m *mockTrainerRepo) Save(ctx context.Context, trainer *entities.Trainer) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, trainer)
	}
	return nil
}

func (m *mockTrainerRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Trainer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockTrainerRepo) List(ctx context.Context, offset, limit int) ([]*entities.Trainer, error) {
	return nil, nil
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

// Mock UnitOfWork выполняет fn без настоящей транзакции
type mockUoW struct{}

func (m *mockUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (m *mockUoW) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

// Test fixtures

func newTestTrainer(t *testing.T) *entities.Trainer {
	t.Helper()
	schedule := make([]entities.DaySchedule, 7)
	for dow := 0; dow < 7; dow++ {
		schedule[dow] = entities.DaySchedule{
			DayOfWeek: dow,
			Available: true,
			WorkingHours: []entities.WorkingHour{
				{Window: parseWindow(t, "09:00", "12:00"), Available: true},
				{Window: parseWindow(t, "14:00", "18:00"), Available: true},
			},
		}
	}
	trainer, err := entities.NewTrainer("Test Trainer", schedule)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	return trainer
}

func parseWindow(t *testing.T, start, end string) valueobjects.TimeWindow {
	t.Helper()
	w, err := valueobjects.ParseTimeWindow(start, end)
	if err != nil {
		t.Fatalf("ParseTimeWindow(%s, %s): %v", start, end, err)
	}
	return w
}

func newActiveMembership(memberID uuid.UUID, sessions int) *entities.Membership {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return entities.NewActiveMembership(memberID, uuid.New(), uuid.New(), start, end, sessions)
}
