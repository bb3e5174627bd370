// Package postgres - AppointmentRepository.
//
// Гонка двойного бронирования закрыта на уровне БД частичным уникальным
// индексом: из двух конкурентных INSERT в один слот проигравший получает
// unique violation, которую мы переводим в ErrBookingConflict.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	domainErrors "github.com/Haleralex/gymhub/internal/domain/errors"
	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.AppointmentRepository = (*AppointmentRepository)(nil)

// appointmentSlotConstraint - имя частичного уникального индекса
// (trainer_id, date, start_time, end_time) WHERE status <> 'cancelled'.
const appointmentSlotConstraint = "uq_appointments_trainer_slot"

// AppointmentRepository реализует ports.AppointmentRepository.
//
// start_time/end_time хранятся как CHAR(5) "HH:MM": формат фиксированной
// ширины сравнивается лексикографически, поэтому SQL-условия пересечения
// интервалов работают прямо над строками.
type AppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository создаёт новый AppointmentRepository.
func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *AppointmentRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Insert вставляет новую запись.
// Unique violation частичного индекса переводится в ErrBookingConflict:
// вызывающая транзакция откатывается целиком вместе с резервом сессии.
func (r *AppointmentRepository) Insert(ctx context.Context, a *entities.Appointment) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO appointments (
			id, member_id, trainer_id, membership_id, date,
			start_time, end_time, location, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := q.Exec(ctx, query,
		a.ID(),
		a.MemberID(),
		a.TrainerID(),
		a.MembershipID(),
		a.Date(),
		a.Window().Start().String(),
		a.Window().End().String(),
		a.Location(),
		a.Notes(),
		string(a.Status()),
		a.CreatedAt(),
		a.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, appointmentSlotConstraint) {
			return domainErrors.ErrBookingConflict
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError("TRAINER_NOT_FOUND", "referenced trainer not found", err)
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	return nil
}

// Update сохраняет изменения существующей записи.
// Перенос в занятый слот ловится тем же уникальным индексом, что и INSERT.
func (r *AppointmentRepository) Update(ctx context.Context, a *entities.Appointment) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE appointments
		SET date = $2, start_time = $3, end_time = $4,
			location = $5, notes = $6, status = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		a.ID(),
		a.Date(),
		a.Window().Start().String(),
		a.Window().End().String(),
		a.Location(),
		a.Notes(),
		string(a.Status()),
		a.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, appointmentSlotConstraint) {
			return domainErrors.ErrBookingConflict
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindByID загружает запись по ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	q := r.getQuerier(ctx)

	query := appointmentSelect + ` WHERE id = $1`

	return scanAppointment(q.QueryRow(ctx, query, id))
}

// CountOverlapping считает не-отменённые записи тренера, пересекающиеся с
// окном [start, end) в указанную дату.
// Пересечение полуоткрытых интервалов: start_time < $end AND end_time > $start.
func (r *AppointmentRepository) CountOverlapping(ctx context.Context, trainerID uuid.UUID, date time.Time, window valueobjects.TimeWindow, excludeID uuid.UUID) (int, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE trainer_id = $1
			AND date = $2
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $4
			AND id <> $5
	`

	var count int
	err := q.QueryRow(ctx, query,
		trainerID,
		date,
		window.End().String(),
		window.Start().String(),
		excludeID,
	).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping appointments: %w", err)
	}

	return count, nil
}

// FindByTrainerAndDate возвращает не-отменённые записи тренера на дату.
func (r *AppointmentRepository) FindByTrainerAndDate(ctx context.Context, trainerID uuid.UUID, date time.Time) ([]*entities.Appointment, error) {
	q := r.getQuerier(ctx)

	query := appointmentSelect + `
		WHERE trainer_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY start_time ASC
	`

	rows, err := q.Query(ctx, query, trainerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments by trainer and date: %w", err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// List возвращает записи с фильтрацией и пагинацией.
func (r *AppointmentRepository) List(ctx context.Context, filter ports.AppointmentFilter, offset, limit int) ([]*entities.Appointment, error) {
	q := r.getQuerier(ctx)

	query := appointmentSelect + ` WHERE 1=1`

	args := []interface{}{}
	argNum := 1

	if filter.MemberID != nil {
		query += fmt.Sprintf(" AND member_id = $%d", argNum)
		args = append(args, *filter.MemberID)
		argNum++
	}

	if filter.TrainerID != nil {
		query += fmt.Sprintf(" AND trainer_id = $%d", argNum)
		args = append(args, *filter.TrainerID)
		argNum++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}

	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND date >= $%d", argNum)
		args = append(args, *filter.DateFrom)
		argNum++
	}

	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND date <= $%d", argNum)
		args = append(args, *filter.DateTo)
		argNum++
	}

	if filter.Query != nil {
		query += fmt.Sprintf(" AND (location ILIKE $%d OR notes ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+*filter.Query+"%")
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY date DESC, start_time DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// SweepMissed переводит pending/confirmed-записи с истёкшим временем
// окончания в missed. Сравнение по дате плюс лексикографическое сравнение
// end_time с "HH:MM" текущего момента для граничного дня.
func (r *AppointmentRepository) SweepMissed(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	q := r.getQuerier(ctx)

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	clock := fmt.Sprintf("%02d:%02d", asOf.Hour(), asOf.Minute())

	query := `
		UPDATE appointments
		SET status = 'missed', updated_at = $1
		WHERE status IN ('pending', 'confirmed')
			AND (date < $2 OR (date = $2 AND end_time <= $3))
		RETURNING id
	`

	rows, err := q.Query(ctx, query, asOf, day, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep missed appointments: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan missed appointment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missed appointments: %w", err)
	}

	return ids, nil
}

const appointmentSelect = `
	SELECT id, member_id, trainer_id, membership_id, date,
		   start_time, end_time, location, notes, status,
		   created_at, updated_at
	FROM appointments
`

// scanAppointment сканирует одну строку в Appointment entity.
func scanAppointment(row pgx.Row) (*entities.Appointment, error) {
	var (
		id, memberID, trainerID, membershipID uuid.UUID
		date                                  time.Time
		startTime, endTime                    string
		location, notes                       string
		statusStr                             string
		createdAt, updatedAt                  time.Time
	)

	err := row.Scan(
		&id,
		&memberID,
		&trainerID,
		&membershipID,
		&date,
		&startTime,
		&endTime,
		&location,
		&notes,
		&statusStr,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}

	window, err := valueobjects.ParseTimeWindow(startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("invalid time window in database: %w", err)
	}

	return entities.ReconstructAppointment(
		id,
		memberID,
		trainerID,
		membershipID,
		date,
		window,
		location,
		notes,
		entities.AppointmentStatus(statusStr),
		createdAt,
		updatedAt,
	), nil
}

// scanAppointments сканирует несколько строк в список Appointment entities.
func scanAppointments(rows pgx.Rows) ([]*entities.Appointment, error) {
	var appointments []*entities.Appointment

	for rows.Next() {
		var (
			id, memberID, trainerID, membershipID uuid.UUID
			date                                  time.Time
			startTime, endTime                    string
			location, notes                       string
			statusStr                             string
			createdAt, updatedAt                  time.Time
		)

		err := rows.Scan(
			&id,
			&memberID,
			&trainerID,
			&membershipID,
			&date,
			&startTime,
			&endTime,
			&location,
			&notes,
			&statusStr,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}

		window, err := valueobjects.ParseTimeWindow(startTime, endTime)
		if err != nil {
			return nil, fmt.Errorf("invalid time window in database: %w", err)
		}

		appointments = append(appointments, entities.ReconstructAppointment(
			id,
			memberID,
			trainerID,
			membershipID,
			date,
			window,
			location,
			notes,
			entities.AppointmentStatus(statusStr),
			createdAt,
			updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment rows: %w", err)
	}

	return appointments, nil
}
