// Package postgres - MembershipRepository с атомарными операциями над квотой.
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
)

// Compile-time check
var _ ports.MembershipRepository = (*MembershipRepository)(nil)

// MembershipRepository реализует ports.MembershipRepository.
//
// Особенности:
// - Квота сессий изменяется ТОЛЬКО условными UPDATE (никаких read-modify-write)
// - CHECK constraint (available_sessions >= 0) — вторая линия обороны в самой БД
type MembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository создаёт новый MembershipRepository.
func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *MembershipRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет абонемент (upsert по id).
func (r *MembershipRepository) Save(ctx context.Context, m *entities.Membership) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO memberships (
			id, member_id, package_id, payment_id, start_date, end_date,
			status, available_sessions, used_sessions, last_sessions_reset,
			auto_renew, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			payment_id = EXCLUDED.payment_id,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			available_sessions = EXCLUDED.available_sessions,
			used_sessions = EXCLUDED.used_sessions,
			last_sessions_reset = EXCLUDED.last_sessions_reset,
			auto_renew = EXCLUDED.auto_renew,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		m.ID(),
		m.MemberID(),
		m.PackageID(),
		m.PaymentID(),
		m.StartDate(),
		m.EndDate(),
		string(m.Status()),
		m.AvailableSessions(),
		m.UsedSessions(),
		m.LastSessionsReset(),
		m.AutoRenew(),
		m.CreatedAt(),
		m.UpdatedAt(),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError("PACKAGE_NOT_FOUND", "referenced package not found", err)
		}
		return fmt.Errorf("failed to save membership: %w", err)
	}

	return nil
}

// FindByID загружает абонемент по ID.
func (r *MembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Membership, error) {
	q := r.getQuerier(ctx)

	query := membershipSelect + ` WHERE id = $1`

	return scanMembership(q.QueryRow(ctx, query, id))
}

// FindActiveByMember находит действующий абонемент участника.
// При нескольких активных строках берётся более свежая по start_date.
func (r *MembershipRepository) FindActiveByMember(ctx context.Context, memberID uuid.UUID) (*entities.Membership, error) {
	q := r.getQuerier(ctx)

	query := membershipSelect + `
		WHERE member_id = $1 AND status = 'active'
		ORDER BY start_date DESC NULLS LAST
		LIMIT 1
	`

	return scanMembership(q.QueryRow(ctx, query, memberID))
}

// FindPendingByPayment находит pending-абонемент, созданный при checkout.
func (r *MembershipRepository) FindPendingByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	q := r.getQuerier(ctx)

	query := membershipSelect + `
		WHERE payment_id = $1 AND status = 'pending'
		LIMIT 1
	`

	return scanMembership(q.QueryRow(ctx, query, paymentID))
}

// FindByPayment находит абонемент, привязанный к платежу, в любом статусе.
func (r *MembershipRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) (*entities.Membership, error) {
	q := r.getQuerier(ctx)

	query := membershipSelect + `
		WHERE payment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanMembership(q.QueryRow(ctx, query, paymentID))
}

// ReserveSession атомарно списывает одну сессию.
//
// Гонка check-then-decrement закрыта самим UPDATE: условие и декремент
// выполняются в одном statement под row lock, поэтому два конкурентных
// бронирования последней сессии никогда не пройдут оба.
func (r *MembershipRepository) ReserveSession(ctx context.Context, membershipID uuid.UUID) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE memberships
		SET available_sessions = available_sessions - 1,
			used_sessions = used_sessions + 1,
			updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND available_sessions > 0
	`

	result, err := q.Exec(ctx, query, membershipID)
	if err != nil {
		return fmt.Errorf("failed to reserve session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNoSessionsLeft
	}

	return nil
}

// ReleaseSession атомарно возвращает сессию при отмене записи.
// used_sessions > 0 в условии: после месячного сброса возвращать нечего,
// и счётчик не уходит в минус.
func (r *MembershipRepository) ReleaseSession(ctx context.Context, membershipID uuid.UUID) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE memberships
		SET available_sessions = available_sessions + 1,
			used_sessions = used_sessions - 1,
			updated_at = NOW()
		WHERE id = $1 AND used_sessions > 0
	`

	result, err := q.Exec(ctx, query, membershipID)
	if err != nil {
		return fmt.Errorf("failed to release session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrNoSessionsUsed
	}

	return nil
}

// ResetMonthlyQuota атомарно восстанавливает месячную квоту.
// Условие по last_sessions_reset входит в UPDATE: из двух конкурентных
// вызовов в начале месяца только один получит RowsAffected = 1.
func (r *MembershipRepository) ResetMonthlyQuota(ctx context.Context, membershipID uuid.UUID, sessions int, now time.Time) (bool, error) {
	q := r.getQuerier(ctx)

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	query := `
		UPDATE memberships
		SET available_sessions = $2,
			last_sessions_reset = $3,
			updated_at = $3
		WHERE id = $1
			AND status = 'active'
			AND COALESCE(last_sessions_reset, start_date) < $4
	`

	result, err := q.Exec(ctx, query, membershipID, sessions, now, firstOfMonth)
	if err != nil {
		return false, fmt.Errorf("failed to reset monthly quota: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SweepExpired переводит просроченные активные абонементы в expired.
func (r *MembershipRepository) SweepExpired(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	q := r.getQuerier(ctx)

	query := `
		UPDATE memberships
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date < $1
		RETURNING id
	`

	rows, err := q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired memberships: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired membership id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired memberships: %w", err)
	}

	return ids, nil
}

// DeleteStalePending удаляет pending-абонементы, чьи платежи не завершились.
func (r *MembershipRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.getQuerier(ctx)

	query := `
		DELETE FROM memberships
		WHERE status = 'pending' AND created_at < $1
	`

	result, err := q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale pending memberships: %w", err)
	}

	return result.RowsAffected(), nil
}

const membershipSelect = `
	SELECT id, member_id, package_id, payment_id, start_date, end_date,
		   status, available_sessions, used_sessions, last_sessions_reset,
		   auto_renew, created_at, updated_at
	FROM memberships
`

// scanMembership сканирует одну строку в Membership entity.
func scanMembership(row pgx.Row) (*entities.Membership, error) {
	var (
		id, memberID, packageID              uuid.UUID
		paymentID                            *uuid.UUID
		startDate, endDate, lastReset        *time.Time
		statusStr                            string
		availableSessions, usedSessions      int
		autoRenew                            bool
		createdAt, updatedAt                 time.Time
	)

	err := row.Scan(
		&id,
		&memberID,
		&packageID,
		&paymentID,
		&startDate,
		&endDate,
		&statusStr,
		&availableSessions,
		&usedSessions,
		&lastReset,
		&autoRenew,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	return entities.ReconstructMembership(
		id,
		memberID,
		packageID,
		paymentID,
		startDate,
		endDate,
		entities.MembershipStatus(statusStr),
		availableSessions,
		usedSessions,
		lastReset,
		autoRenew,
		createdAt,
		updatedAt,
	), nil
}
