// Package booking - use cases бронирования персональных тренировок.
//
// Две гонки закрываются здесь на уровне БД, а не проверками в памяти:
//   - квота сессий: условный UPDATE в ReserveSession
//   - двойное бронирование слота: частичный уникальный индекс на INSERT
//
// Обе операции выполняются в одной транзакции, поэтому проигравший
// уникальному индексу откатывает и своё списание сессии.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/events"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// BookAppointmentUseCase - use case бронирования сессии.
//
// Сценарий:
// 1. Загрузить указанный абонемент, проверить владельца и статус
// 2. При необходимости восстановить месячную квоту (lazy reset)
// 3. Проверить, что окно входит в рабочие часы тренера
// 4. Атомарно списать сессию (ErrNoSessionsLeft при нуле)
// 5. Вставить запись (уникальный индекс ловит конкурента)
// 6. Погасить точный слот расписания (advisory-флаг)
// 7. Опубликовать AppointmentBooked
type BookAppointmentUseCase struct {
	membershipRepo  ports.MembershipRepository
	appointmentRepo ports.AppointmentRepository
	trainerRepo     ports.TrainerRepository
	packageRepo     ports.PackageRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	clock           ports.Clock
}

// NewBookAppointmentUseCase создаёт новый use case.
func NewBookAppointmentUseCase(
	membershipRepo ports.MembershipRepository,
	appointmentRepo ports.AppointmentRepository,
	trainerRepo ports.TrainerRepository,
	packageRepo ports.PackageRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	clock ports.Clock,
) *BookAppointmentUseCase {
	return &BookAppointmentUseCase{
		membershipRepo:  membershipRepo,
		appointmentRepo: appointmentRepo,
		trainerRepo:     trainerRepo,
		packageRepo:     packageRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		clock:           clock,
	}
}

// Execute выполняет бронирование.
func (uc *BookAppointmentUseCase) Execute(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error) {
	memberID, err := uuid.Parse(cmd.MemberID)
	if err != nil {
		return nil, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
	}
	trainerID, err := uuid.Parse(cmd.TrainerID)
	if err != nil {
		return nil, errors.ValidationError{Field: "trainer_id", Message: "invalid UUID"}
	}
	membershipID, err := uuid.Parse(cmd.MembershipID)
	if err != nil {
		return nil, errors.ValidationError{Field: "membership_id", Message: "invalid UUID"}
	}
	date, err := time.Parse(dtos.DateLayout, cmd.Date)
	if err != nil {
		return nil, errors.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	window, err := valueobjects.ParseTimeWindow(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, errors.ValidationError{Field: "start_time", Message: err.Error()}
	}

	now := uc.clock.Now()
	var result *dtos.AppointmentDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Указанный абонемент. Участник сам выбирает, с какого
		// абонемента тратится сессия, система не угадывает.
		membership, err := uc.membershipRepo.FindByID(txCtx, membershipID)
		if err != nil {
			return err
		}
		if membership.MemberID() != memberID {
			return errors.ErrForbidden
		}
		if !membership.IsActive() {
			return errors.ErrMembershipNotActive
		}

		// 2. Lazy-сброс месячной квоты. Условие по last_sessions_reset
		// входит в UPDATE, конкурентные бронирования сбросят не более
		// одного раза.
		if membership.NeedsMonthlyReset(now) {
			pkg, err := uc.packageRepo.FindByID(txCtx, membership.PackageID())
			if err != nil {
				return fmt.Errorf("failed to load package: %w", err)
			}
			reset, err := uc.membershipRepo.ResetMonthlyQuota(txCtx, membership.ID(), pkg.TrainingSessions(), now)
			if err != nil {
				return fmt.Errorf("failed to reset monthly quota: %w", err)
			}
			if reset {
				membership.ResetSessions(pkg.TrainingSessions(), now)
			}
		}

		// 3. Рабочие часы тренера
		trainer, err := uc.trainerRepo.FindByID(txCtx, trainerID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.NewDomainError("TRAINER_NOT_FOUND", "trainer not found", err)
			}
			return fmt.Errorf("failed to load trainer: %w", err)
		}
		if !trainer.WorksWindow(date, window) {
			return errors.ErrSlotUnavailable
		}

		// Ранняя проверка конфликта даёт понятную ошибку без траты
		// сессии; уникальный индекс на INSERT остаётся последней линией.
		overlapping, err := uc.appointmentRepo.CountOverlapping(txCtx, trainerID, date, window, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if overlapping > 0 {
			return errors.ErrBookingConflict
		}

		// 4. Атомарное списание сессии
		if err := uc.membershipRepo.ReserveSession(txCtx, membership.ID()); err != nil {
			return err
		}

		// 5. Вставка записи. ErrBookingConflict здесь откатывает
		// транзакцию вместе со списанием из шага 4.
		appointment, err := entities.NewAppointment(memberID, trainerID, membership.ID(), date, window, cmd.Location, cmd.Notes)
		if err != nil {
			return err
		}
		if err := uc.appointmentRepo.Insert(txCtx, appointment); err != nil {
			return err
		}

		// 6. Advisory-флаг слота, только при точном совпадении окна
		if trainer.ConsumeSlot(date, window) {
			if err := uc.trainerRepo.Save(txCtx, trainer); err != nil {
				return fmt.Errorf("failed to save trainer schedule: %w", err)
			}
		}

		// 7. Событие
		event := events.NewAppointmentBooked(
			appointment.ID(), memberID, trainerID, membership.ID(),
			date, window.Start().String(), window.End().String(),
		)
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		dto := dtos.ToAppointmentDTO(appointment, now)
		result = &dto
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}
