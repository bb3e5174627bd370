// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// MembershipRepository определяет контракт для хранения абонементов.
//
// Важно: квота сессий изменяется ТОЛЬКО атомарными условными операциями
// (ReserveSession / ReleaseSession / ResetMonthlyQuota). Загрузить entity,
// изменить в памяти и сохранить — недостаточно под конкурентной нагрузкой.
type MembershipRepository interface {
	// Save сохраняет абонемент (create or update).
	Save(ctx context.Context, membership *entities.Membership) error

	// FindByID загружает абонемент по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Membership, error)

	// FindActiveByMember находит действующий абонемент участника.
	// Возвращает ErrEntityNotFound если активного абонемента нет.
	FindActiveByMember(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error)

	// FindPendingByPayment находит pending-абонемент, привязанный к платежу.
	// Используется при сверке callback'а шлюза.
	FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error)

	// FindByPayment находит абонемент, привязанный к платежу, в любом статусе.
	// Используется при чтении завершённого платежа вместе с абонементом.
	FindByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error)

	// ReserveSession атомарно списывает одну сессию:
	//   UPDATE ... SET available_sessions = available_sessions - 1,
	//                  used_sessions = used_sessions + 1
	//   WHERE id = $1 AND status = 'active' AND available_sessions > 0
	// Возвращает ErrNoSessionsLeft если условие не выполнилось (0 rows).
	ReserveSession(ctx context.Context, membershipID uuid.UUID) error

	// ReleaseSession атомарно возвращает одну сессию при отмене записи:
	//   ... WHERE id = $1 AND used_sessions > 0
	// Возвращает ErrNoSessionsUsed если возвращать нечего.
	ReleaseSession(ctx context.Context, membershipID uuid.UUID) error

	// ResetMonthlyQuota атомарно восстанавливает месячную квоту, если
	// последний сброс был до начала текущего месяца. Условие по
	// last_sessions_reset входит в сам UPDATE, поэтому конкурентные вызовы
	// сбрасывают квоту не более одного раза за месяц.
	// Возвращает true если сброс произошёл.
	ResetMonthlyQuota(ctx context.Context, membershipID uuid.UUID, sessions int, now time.Time) (bool, error)

	// SweepExpired переводит active-абонементы с end_date < asOf в expired.
	// Возвращает ID затронутых строк для публикации событий.
	SweepExpired(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)

	// DeleteStalePending удаляет pending-абонементы старше cutoff, чьи
	// платежи так и не завершились. Возвращает количество удалённых.
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// AppointmentRepository определяет контракт для хранения записей к тренеру.
type AppointmentRepository interface {
	// Insert вставляет новую запись. Частичный уникальный индекс по
	// (trainer_id, date, start_time, end_time) WHERE status <> 'cancelled'
	// закрывает гонку двойного бронирования: проигравший получает
	// ErrBookingConflict.
	Insert(ctx context.Context, appointment *entities.Appointment) error

	// Update сохраняет изменения существующей записи.
	Update(ctx context.Context, appointment *entities.Appointment) error

	// FindByID загружает запись по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error)

	// CountOverlapping считает не-отменённые записи тренера, пересекающиеся
	// с окном [startTime, endTime) в указанную дату. Пересечение интервалов:
	// start_time < $end AND end_time > $start.
	// excludeID исключает саму запись при переносе (uuid.Nil — без исключений).
	CountOverlapping(ctx context.Context, trainerID uuid.UUID, date time.Time, window valueobjects.TimeWindow, excludeID uuid.UUID) (int, error)

	// FindByTrainerAndDate возвращает не-отменённые записи тренера на дату.
	// Используется при расчёте свободных слотов.
	FindByTrainerAndDate(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]*entities.Appointment, error)

	// List возвращает записи с фильтрацией и пагинацией.
	List(ctx context.Context, filter AppointmentFilter, offset, limit int) ([]*entities.Appointment, error)

	// SweepMissed переводит pending/confirmed-записи с истёкшим временем
	// окончания в missed. Возвращает ID затронутых строк.
	SweepMissed(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}

// AppointmentFilter определяет критерии фильтрации для записей.
// Query - подстрока для регистронезависимого поиска по location и notes.
type AppointmentFilter struct {
	MemberID  *uuid.UUID
	TrainerID *uuid.UUID
	Status    *entities.AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Query     *string
}

// TrainerRepository определяет контракт для хранения тренеров.
type TrainerRepository interface {
	// Save сохраняет тренера вместе с недельным расписанием.
	Save(ctx context.Context, trainer *entities.Trainer) error

	// FindByID загружает тренера по ID со всем расписанием.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Trainer, error)

	// List возвращает тренеров с пагинацией.
	List(ctx context.Context, offset, limit int) ([]*entities.Trainer, error)
}

// PaymentRepository определяет контракт для хранения платежей.
type PaymentRepository interface {
	// Save сохраняет платёж. transaction_id уникален (UNIQUE constraint).
	Save(ctx context.Context, payment *entities.Payment) error

	// FindByID загружает платёж по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error)

	// FindByTransactionID находит платёж по transaction id шлюза.
	// Ключ корреляции для callback'ов.
	FindByTransactionID(ctx context.Context, transactionID string) (*entities.Payment, error)

	// CompleteIfPending атомарно переводит платёж pending -> completed:
	//   UPDATE payments SET status = 'completed', ...
	//   WHERE transaction_id = $1 AND status = 'pending'
	// Возвращает (false, nil) если условие не выполнилось — платёж уже
	// завершён или провален. Это защита от replay callback'ов: побочные
	// эффекты выполняет только вызов, получивший true.
	CompleteIfPending(ctx context.Context, transactionID, payType string, rawPayload []byte, now time.Time) (bool, error)

	// MarkFailed записывает провал платежа, не трогая завершённые.
	MarkFailed(ctx context.Context, transactionID string, rawPayload []byte, now time.Time) error

	// FindByMember возвращает платежи участника с пагинацией.
	FindByMember(ctx context.Context, memberID uuid.UUID, offset, limit int) ([]*entities.Payment, error)
}

// PackageRepository определяет контракт для чтения пакетов.
// Пакеты управляются админ-поверхностью, ядро их только читает.
type PackageRepository interface {
	// FindByID загружает пакет по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error)

	// ListActive возвращает продаваемые пакеты.
	ListActive(ctx context.Context) ([]*entities.GymPackage, error)
}

// PromotionRepository определяет контракт для чтения промо-акций.
type PromotionRepository interface {
	// FindRunning возвращает акции, действующие на момент now.
	FindRunning(ctx context.Context, now time.Time) ([]*entities.Promotion, error)
}
