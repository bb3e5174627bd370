// Package nats - публикация domain events в NATS.
//
// Publisher используется poller'ом транзакционного outbox: бизнес-операции
// пишут события в БД, poller доносит их до брокера. Доставка at-least-once.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/events"
)

// Compile-time check
var _ ports.EventPublisher = (*Publisher)(nil)

// SubjectPrefix - префикс NATS subjects для всех событий.
// Полный subject: gymhub.events.<event_type>, например
// gymhub.events.appointment.booked.
const SubjectPrefix = "gymhub.events."

// Publisher публикует события напрямую в NATS.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *nats.Conn, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Connect подключается к NATS с reconnect-настройками по умолчанию.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// eventEnvelope - wire-формат события в брокере.
type eventEnvelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  string          `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Publish публикует одно событие.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return p.publishRaw(event.EventType(), eventEnvelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID().String(),
		OccurredAt:  event.OccurredAt().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Payload:     payload,
	})
}

// PublishBatch публикует несколько событий; ошибка любого проваливает batch.
func (p *Publisher) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	for _, event := range eventsList {
		if err := p.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// PublishEntry публикует сырую outbox-строку. Используется poller'ом,
// которому не нужно восстанавливать типизированное событие.
func (p *Publisher) PublishEntry(entry ports.OutboxEntry) error {
	return p.publishRaw(entry.EventType, eventEnvelope{
		EventID:     entry.EventID,
		EventType:   entry.EventType,
		AggregateID: entry.AggregateID,
		Payload:     entry.Payload,
	})
}

func (p *Publisher) publishRaw(eventType string, envelope eventEnvelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectPrefix + eventType
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("event published",
		slog.String("subject", subject),
		slog.String("event_id", envelope.EventID),
	)

	return nil
}
