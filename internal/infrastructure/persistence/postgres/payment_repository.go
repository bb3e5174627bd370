// Package postgres - PaymentRepository.
//
// transaction_id - идемпотентный ключ callback'ов шлюза. Replay закрыт
// условным UPDATE в CompleteIfPending: из любого числа одинаковых callback'ов
// побочные эффекты выполнит только тот, чей UPDATE затронул строку.
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
var _ ports.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository реализует ports.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository создаёт новый PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *PaymentRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет платёж. transaction_id защищён UNIQUE constraint.
func (r *PaymentRepository) Save(ctx context.Context, p *entities.Payment) error {
	q := r.getQuerier(ctx)

	promotionJSON, err := p.PromotionJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal promotion snapshot: %w", err)
	}

	query := `
		INSERT INTO payments (
			id, member_id, package_id, amount, currency, status,
			payment_method, transaction_id, payment_info, promotion,
			created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			payment_method = EXCLUDED.payment_method,
			payment_info = EXCLUDED.payment_info,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = q.Exec(ctx, query,
		p.ID(),
		p.MemberID(),
		p.PackageID(),
		p.Amount().Units(),
		p.Amount().Currency().Code(),
		string(p.Status()),
		p.PaymentMethod(),
		p.TransactionID(),
		p.PaymentInfo(),
		promotionJSON,
		p.CreatedAt(),
		p.UpdatedAt(),
		p.CompletedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "payments_transaction_id") {
			return domainErrors.NewBusinessRuleViolation(
				"DUPLICATE_TRANSACTION_ID",
				"payment with this transaction id already exists",
				map[string]interface{}{"transaction_id": p.TransactionID()},
			)
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}

	return nil
}

// FindByID загружает платёж по ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	q := r.getQuerier(ctx)

	query := paymentSelect + ` WHERE id = $1`

	return scanPayment(q.QueryRow(ctx, query, id))
}

// FindByTransactionID находит платёж по transaction id шлюза.
func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entities.Payment, error) {
	q := r.getQuerier(ctx)

	query := paymentSelect + ` WHERE transaction_id = $1`

	return scanPayment(q.QueryRow(ctx, query, transactionID))
}

// CompleteIfPending атомарно переводит платёж pending -> completed.
// false без ошибки означает, что строка уже не pending: callback - replay,
// и вызывающая сторона не выполняет побочных эффектов.
func (r *PaymentRepository) CompleteIfPending(ctx context.Context, transactionID, payType string, rawPayload []byte, now time.Time) (bool, error) {
	q := r.getQuerier(ctx)

	query := `
		UPDATE payments
		SET status = 'completed',
			payment_method = $2,
			payment_info = $3,
			completed_at = $4,
			updated_at = $4
		WHERE transaction_id = $1 AND status = 'pending'
	`

	result, err := q.Exec(ctx, query, transactionID, payType, rawPayload, now)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkFailed записывает провал платежа, не трогая завершённые.
func (r *PaymentRepository) MarkFailed(ctx context.Context, transactionID string, rawPayload []byte, now time.Time) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE payments
		SET status = 'failed', payment_info = $2, updated_at = $3
		WHERE transaction_id = $1 AND status <> 'completed'
	`

	_, err := q.Exec(ctx, query, transactionID, rawPayload, now)
	if err != nil {
		return fmt.Errorf("failed to mark payment as failed: %w", err)
	}

	return nil
}

// FindByMember возвращает платежи участника с пагинацией.
func (r *PaymentRepository) FindByMember(ctx context.Context, memberID uuid.UUID, offset, limit int) ([]*entities.Payment, error) {
	q := r.getQuerier(ctx)

	query := paymentSelect + `
		WHERE member_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, query, memberID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments by member: %w", err)
	}
	defer rows.Close()

	var payments []*entities.Payment
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return payments, nil
}

const paymentSelect = `
	SELECT id, member_id, package_id, amount, currency, status,
		   payment_method, transaction_id, payment_info, promotion,
		   created_at, updated_at, completed_at
	FROM payments
`

// scanPayment сканирует одну строку в Payment entity.
func scanPayment(row pgx.Row) (*entities.Payment, error) {
	payment, err := scanPaymentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, err
	}
	return payment, nil
}

func scanPaymentRow(row pgx.Row) (*entities.Payment, error) {
	var (
		id, memberID, packageID    uuid.UUID
		amountUnits                int64
		currencyCode, statusStr    string
		paymentMethod              string
		transactionID              string
		paymentInfo, promotionJSON []byte
		createdAt, updatedAt       time.Time
		completedAt                *time.Time
	)

	err := row.Scan(
		&id,
		&memberID,
		&packageID,
		&amountUnits,
		&currencyCode,
		&statusStr,
		&paymentMethod,
		&transactionID,
		&paymentInfo,
		&promotionJSON,
		&createdAt,
		&updatedAt,
		&completedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	amount, err := valueobjects.NewMoney(amountUnits, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	payment, err := entities.ReconstructPayment(
		id,
		memberID,
		packageID,
		amount,
		entities.PaymentStatus(statusStr),
		paymentMethod,
		transactionID,
		paymentInfo,
		promotionJSON,
		createdAt,
		updatedAt,
		completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment: %w", err)
	}

	return payment, nil
}
