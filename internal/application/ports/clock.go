// Package ports - Clock для тестируемости операций, зависящих от времени.
package ports

import "time"

// Clock отдаёт текущее время. Use cases берут "сейчас" отсюда, а не из
// time.Now(), чтобы тесты окна отмены и месячного сброса были детерминированы.
type Clock interface {
	Now() time.Time
}

// SystemClock - production-реализация поверх time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock возвращает заранее заданный момент. Для тестов.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
