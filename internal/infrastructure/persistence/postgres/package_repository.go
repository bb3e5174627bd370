// Package postgres - PackageRepository и PromotionRepository.
// Обе таблицы наполняются админ-поверхностью; ядро их только читает.
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

// Compile-time checks
var (
	_ ports.PackageRepository   = (*PackageRepository)(nil)
	_ ports.PromotionRepository = (*PromotionRepository)(nil)
)

// PackageRepository реализует ports.PackageRepository.
type PackageRepository struct {
	pool *pgxpool.Pool
}

// NewPackageRepository создаёт новый PackageRepository.
func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *PackageRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// FindByID загружает пакет по ID.
func (r *PackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.GymPackage, error) {
	q := r.getQuerier(ctx)

	query := packageSelect + ` WHERE id = $1`

	return scanPackage(q.QueryRow(ctx, query, id))
}

// ListActive возвращает продаваемые пакеты.
func (r *PackageRepository) ListActive(ctx context.Context) ([]*entities.GymPackage, error) {
	q := r.getQuerier(ctx)

	query := packageSelect + `
		WHERE status = 'active'
		ORDER BY price ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active packages: %w", err)
	}
	defer rows.Close()

	var packages []*entities.GymPackage
	for rows.Next() {
		pkg, err := scanPackageRow(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}

	return packages, nil
}

const packageSelect = `
	SELECT id, name, price, currency, duration_days, training_sessions,
		   status, created_at, updated_at
	FROM packages
`

func scanPackage(row pgx.Row) (*entities.GymPackage, error) {
	pkg, err := scanPackageRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, err
	}
	return pkg, nil
}

func scanPackageRow(row pgx.Row) (*entities.GymPackage, error) {
	var (
		id                              uuid.UUID
		name                            string
		priceUnits                      int64
		currencyCode, statusStr         string
		durationDays, trainingSessions  int
		createdAt, updatedAt            time.Time
	)

	err := row.Scan(
		&id,
		&name,
		&priceUnits,
		&currencyCode,
		&durationDays,
		&trainingSessions,
		&statusStr,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}

	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency in database: %w", err)
	}

	price, err := valueobjects.NewMoney(priceUnits, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid price in database: %w", err)
	}

	return entities.ReconstructGymPackage(
		id,
		name,
		price,
		durationDays,
		trainingSessions,
		entities.PackageStatus(statusStr),
		createdAt,
		updatedAt,
	), nil
}

// PromotionRepository реализует ports.PromotionRepository.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository создаёт новый PromotionRepository.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *PromotionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// FindRunning возвращает акции, действующие на момент now.
// Выбор лучшей (наибольшая скидка) делает домен, не SQL: правило выбора -
// бизнес-логика, и тестируется она без БД.
func (r *PromotionRepository) FindRunning(ctx context.Context, now time.Time) ([]*entities.Promotion, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, name, discount_percent, applicable_packages,
			   active, starts_at, ends_at, created_at
		FROM promotions
		WHERE active = TRUE AND starts_at <= $1 AND ends_at > $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find running promotions: %w", err)
	}
	defer rows.Close()

	var promotions []*entities.Promotion
	for rows.Next() {
		var (
			id                 uuid.UUID
			name               string
			discountPercent    int
			applicablePackages []uuid.UUID
			active             bool
			startsAt, endsAt   time.Time
			createdAt          time.Time
		)

		err := rows.Scan(
			&id,
			&name,
			&discountPercent,
			&applicablePackages,
			&active,
			&startsAt,
			&endsAt,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promotion row: %w", err)
		}

		promotions = append(promotions, entities.ReconstructPromotion(
			id,
			name,
			discountPercent,
			applicablePackages,
			active,
			startsAt,
			endsAt,
			createdAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating promotion rows: %w", err)
	}

	return promotions, nil
}
