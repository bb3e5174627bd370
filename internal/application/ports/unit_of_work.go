// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
// - Один UnitOfWork = одна БД-транзакция
// - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
// Пример использования:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    if err := membershipRepo.ReserveSession(txCtx, membershipID); err != nil {
//	        return err // automatic rollback
//	    }
//	    return appointmentRepo.Insert(txCtx, appointment)
//	})
//
// Переданный в fn context содержит транзакцию; все репозиторные вызовы
// внутри fn должны использовать именно его.
type UnitOfWork interface {
	// Execute выполняет функцию внутри транзакции.
	// Если fn возвращает error — ROLLBACK, иначе COMMIT.
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithResult аналогичен Execute, но возвращает результат.
	// Полезно когда нужно вернуть созданную entity.
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error)
}
