// Package postgres - OutboxRepository для Transactional Outbox Pattern.
//
// Событие пишется в таблицу outbox в той же транзакции, что и бизнес-операция;
// отдельный poller читает pending-строки и публикует их в NATS. Доставка
// at-least-once, consumers обязаны быть идемпотентными.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// Compile-time checks: OutboxRepository одновременно является EventPublisher,
// чтобы use cases публиковали события внутри своей транзакции.
var (
	_ ports.OutboxRepository = (*OutboxRepository)(nil)
	_ ports.EventPublisher   = (*OutboxRepository)(nil)
)

// OutboxRepository реализует ports.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository создаёт новый OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет событие в outbox таблицу.
// Должно выполняться в той же транзакции, что и бизнес-операция.
func (r *OutboxRepository) Save(ctx context.Context, event events.DomainEvent) error {
	q := r.getQuerier(ctx)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_id, event_type, payload, status, created_at
		) VALUES ($1, $2, $3, $4, 'pending', $5)
	`

	_, err = q.Exec(ctx, query,
		event.EventID(),
		event.AggregateID(),
		event.EventType(),
		payload,
		event.OccurredAt(),
	)

	if err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}

	return nil
}

// Publish реализует EventPublisher: в outbox pattern это alias для Save.
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	return r.Save(ctx, event)
}

// PublishBatch сохраняет несколько событий за один вызов.
func (r *OutboxRepository) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	for _, event := range eventsList {
		if err := r.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// FindUnpublished возвращает неопубликованные события для poller'а.
// FOR UPDATE SKIP LOCKED позволяет нескольким инстансам poller'а работать
// параллельно без дублирования.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer rows.Close()

	var entries []ports.OutboxEntry
	for rows.Next() {
		var (
			id, aggregateID uuid.UUID
			eventType       string
			payload         []byte
		)

		if err := rows.Scan(&id, &aggregateID, &eventType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		entries = append(entries, ports.OutboxEntry{
			EventID:     id.String(),
			EventType:   eventType,
			AggregateID: aggregateID.String(),
			Payload:     payload,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return entries, nil
}

// MarkPublished помечает событие как опубликованное.
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	q := r.getQuerier(ctx)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET status = 'published', published_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	result, err := q.Exec(ctx, query, eventUUID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("event not found or already published")
	}

	return nil
}

// MarkFailed помечает событие как failed с текстом ошибки.
func (r *OutboxRepository) MarkFailed(ctx context.Context, eventID string, reason string) error {
	q := r.getQuerier(ctx)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET status = 'failed',
			last_error = $2,
			retry_count = retry_count + 1
		WHERE id = $1
	`

	_, err = q.Exec(ctx, query, eventUUID, reason)
	if err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}

	return nil
}
