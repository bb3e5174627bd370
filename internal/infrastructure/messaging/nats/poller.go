// Package nats - poller транзакционного outbox.
package nats

import (
	"context"
	"log/slog"
	"time"

	"github.com/Haleralex/gymhub/internal/application/ports"
)

// OutboxPoller перекладывает события из outbox-таблицы в NATS.
//
// Доставка at-least-once: строка помечается published только после успешной
// публикации, поэтому падение между публикацией и отметкой даст дубликат.
// Consumers обязаны быть идемпотентными.
type OutboxPoller struct {
	outbox    ports.OutboxRepository
	publisher *Publisher
	uow       ports.UnitOfWork
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller создаёт новый OutboxPoller.
func NewOutboxPoller(outbox ports.OutboxRepository, publisher *Publisher, uow ports.UnitOfWork, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxPoller {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		outbox:    outbox,
		publisher: publisher,
		uow:       uow,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run крутит цикл публикации до отмены контекста.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll failed", slog.Any("error", err))
			}
		}
	}
}

// Poll публикует одну пачку неопубликованных событий.
//
// FindUnpublished держит FOR UPDATE SKIP LOCKED, поэтому выборка и отметка
// должны жить в одной транзакции; сами публикации в NATS идут внутри неё,
// что безопасно при at-least-once семантике.
func (p *OutboxPoller) Poll(ctx context.Context) error {
	return p.uow.Execute(ctx, func(txCtx context.Context) error {
		entries, err := p.outbox.FindUnpublished(txCtx, p.batchSize)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if err := p.publisher.PublishEntry(entry); err != nil {
				p.logger.Error("failed to publish outbox entry",
					slog.String("event_id", entry.EventID),
					slog.String("event_type", entry.EventType),
					slog.Any("error", err),
				)
				if markErr := p.outbox.MarkFailed(txCtx, entry.EventID, err.Error()); markErr != nil {
					return markErr
				}
				continue
			}

			if err := p.outbox.MarkPublished(txCtx, entry.EventID); err != nil {
				return err
			}
		}

		return nil
	})
}
