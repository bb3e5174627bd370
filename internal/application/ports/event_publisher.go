// Package ports - EventPublisher для публикации domain events.
//
// Pattern: Publisher/Subscriber
package ports

import (
	"context"

	"github.com/Haleralex/gymhub/internal/domain/events"
)

// EventPublisher определяет контракт для публикации domain events.
//
// Реализации:
// - Transactional Outbox (production, пишет в ту же БД-транзакцию)
// - NATS (прямая публикация)
// - In-memory (тесты)
//
// Доставка at-least-once: consumers обязаны быть идемпотентными.
type EventPublisher interface {
	// Publish публикует одно событие.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch публикует несколько событий за один вызов.
	// Если одно событие не удаётся опубликовать, вся batch проваливается.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// OutboxRepository - интерфейс для Transactional Outbox Pattern.
//
// Событие сохраняется в таблицу outbox в той же БД-транзакции, что и
// бизнес-операция; отдельный poller читает outbox и публикует в брокер.
type OutboxRepository interface {
	// Save сохраняет событие в outbox таблицу.
	// Должно выполняться в той же транзакции, что и бизнес-операция.
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished возвращает события, которые ещё не опубликованы.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID string) error

	// MarkFailed помечает событие как failed после N неудачных попыток.
	MarkFailed(ctx context.Context, eventID string, reason string) error
}

// OutboxEntry - строка outbox-таблицы в сыром виде для poller'а.
type OutboxEntry struct {
	EventID     string
	EventType   string
	AggregateID string
	Payload     []byte
}
