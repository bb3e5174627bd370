// Package postgres - TrainerRepository.
// Недельное расписание хранится одной JSONB-колонкой: оно всегда читается и
// пишется целиком, реляционная разбивка по слотам тут ничего не даёт.
package postgres

import (
	"context"
	"encoding/json"
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
var _ ports.TrainerRepository = (*TrainerRepository)(nil)

// TrainerRepository реализует ports.TrainerRepository.
type TrainerRepository struct {
	pool *pgxpool.Pool
}

// NewTrainerRepository создаёт новый TrainerRepository.
func NewTrainerRepository(pool *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *TrainerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// scheduleDoc - JSONB-представление недельного расписания.
type scheduleDoc struct {
	DayOfWeek    int              `json:"day_of_week"`
	Available    bool             `json:"available"`
	WorkingHours []workingHourDoc `json:"working_hours"`
}

type workingHourDoc struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// Save сохраняет тренера вместе с расписанием (upsert по id).
func (r *TrainerRepository) Save(ctx context.Context, trainer *entities.Trainer) error {
	q := r.getQuerier(ctx)

	scheduleJSON, err := marshalSchedule(trainer.Schedule())
	if err != nil {
		return fmt.Errorf("failed to marshal trainer schedule: %w", err)
	}

	query := `
		INSERT INTO trainers (id, full_name, schedule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			schedule = EXCLUDED.schedule,
			updated_at = EXCLUDED.updated_at
	`

	_, err = q.Exec(ctx, query,
		trainer.ID(),
		trainer.FullName(),
		scheduleJSON,
		trainer.CreatedAt(),
		trainer.UpdatedAt(),
	)

	if err != nil {
		return fmt.Errorf("failed to save trainer: %w", err)
	}

	return nil
}

// FindByID загружает тренера по ID со всем расписанием.
func (r *TrainerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Trainer, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, full_name, schedule, created_at, updated_at
		FROM trainers
		WHERE id = $1
	`

	return scanTrainer(q.QueryRow(ctx, query, id))
}

// List возвращает тренеров с пагинацией.
func (r *TrainerRepository) List(ctx context.Context, offset, limit int) ([]*entities.Trainer, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, full_name, schedule, created_at, updated_at
		FROM trainers
		ORDER BY full_name ASC
		OFFSET $1 LIMIT $2
	`

	rows, err := q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	defer rows.Close()

	var trainers []*entities.Trainer
	for rows.Next() {
		var (
			id                   uuid.UUID
			fullName             string
			scheduleJSON         []byte
			createdAt, updatedAt time.Time
		)

		if err := rows.Scan(&id, &fullName, &scheduleJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trainer row: %w", err)
		}

		trainer, err := reconstructTrainer(id, fullName, scheduleJSON, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, trainer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trainer rows: %w", err)
	}

	return trainers, nil
}

// scanTrainer сканирует одну строку в Trainer entity.
func scanTrainer(row pgx.Row) (*entities.Trainer, error) {
	var (
		id                   uuid.UUID
		fullName             string
		scheduleJSON         []byte
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &fullName, &scheduleJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan trainer: %w", err)
	}

	return reconstructTrainer(id, fullName, scheduleJSON, createdAt, updatedAt)
}

func reconstructTrainer(id uuid.UUID, fullName string, scheduleJSON []byte, createdAt, updatedAt time.Time) (*entities.Trainer, error) {
	schedule, err := unmarshalSchedule(scheduleJSON)
	if err != nil {
		return nil, fmt.Errorf("invalid trainer schedule in database: %w", err)
	}

	trainer, err := entities.ReconstructTrainer(id, fullName, schedule, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct trainer: %w", err)
	}

	return trainer, nil
}

func marshalSchedule(schedule []entities.DaySchedule) ([]byte, error) {
	docs := make([]scheduleDoc, 0, len(schedule))
	for _, day := range schedule {
		doc := scheduleDoc{
			DayOfWeek:    day.DayOfWeek,
			Available:    day.Available,
			WorkingHours: make([]workingHourDoc, 0, len(day.WorkingHours)),
		}
		for _, wh := range day.WorkingHours {
			doc.WorkingHours = append(doc.WorkingHours, workingHourDoc{
				Start:     wh.Window.Start().String(),
				End:       wh.Window.End().String(),
				Available: wh.Available,
			})
		}
		docs = append(docs, doc)
	}
	return json.Marshal(docs)
}

func unmarshalSchedule(data []byte) ([]entities.DaySchedule, error) {
	var docs []scheduleDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}

	schedule := make([]entities.DaySchedule, 0, len(docs))
	for _, doc := range docs {
		day := entities.DaySchedule{
			DayOfWeek:    doc.DayOfWeek,
			Available:    doc.Available,
			WorkingHours: make([]entities.WorkingHour, 0, len(doc.WorkingHours)),
		}
		for _, wh := range doc.WorkingHours {
			window, err := valueobjects.ParseTimeWindow(wh.Start, wh.End)
			if err != nil {
				return nil, err
			}
			day.WorkingHours = append(day.WorkingHours, entities.WorkingHour{
				Window:    window,
				Available: wh.Available,
			})
		}
		schedule = append(schedule, day)
	}
	return schedule, nil
}
