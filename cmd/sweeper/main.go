// Sweeper runs the scheduled background jobs:
//   - missed appointments: pending/confirmed whose window has passed
//   - membership lifecycle: expire overdue, drop abandoned pending checkouts
//
// Несколько инстансов могут работать одновременно: перед каждым проходом
// берётся распределённая блокировка в Redis, проход выполняет только один.
// Сами UPDATE идемпотентны, так что блокировка экономит работу, а не
// защищает корректность.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/joho/godotenv"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/Haleralex/gymhub/internal/adapters/http/middleware"
	"github.com/Haleralex/gymhub/internal/config"
	"github.com/Haleralex/gymhub/internal/container"
)

const (
	appointmentsLockKey = "gymhub:sweep:appointments"
	membershipsLockKey  = "gymhub:sweep:memberships"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("configs", "config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	c := container.New(cfg)
	if err := c.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	logger := c.Logger().With(slog.String("component", "sweeper"))

	// Redis + redsync для распределённой блокировки
	redisClient := goredislib.NewClient(&goredislib.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	rs := redsync.New(goredis.NewPool(redisClient))

	scheduler := cron.New()

	_, err = scheduler.AddFunc(cfg.Sweep.AppointmentsSchedule, func() {
		withLock(ctx, rs, appointmentsLockKey, cfg, logger, func(jobCtx context.Context) {
			swept, err := c.SweepMissedAppointmentsUseCase().Execute(jobCtx)
			if err != nil {
				logger.Error("appointment sweep failed", slog.String("error", err.Error()))
				return
			}
			middleware.SweptAppointmentsTotal.Add(float64(swept))
			if swept > 0 {
				logger.Info("appointments swept", slog.Int("count", swept))
			}
		})
	})
	if err != nil {
		log.Fatalf("invalid appointments schedule %q: %v", cfg.Sweep.AppointmentsSchedule, err)
	}

	_, err = scheduler.AddFunc(cfg.Sweep.MembershipsSchedule, func() {
		withLock(ctx, rs, membershipsLockKey, cfg, logger, func(jobCtx context.Context) {
			report, err := c.SweepMembershipsUseCase().Execute(jobCtx)
			if err != nil {
				logger.Error("membership sweep failed", slog.String("error", err.Error()))
				return
			}
			middleware.SweptMembershipsTotal.WithLabelValues("expired").Add(float64(report.Expired))
			middleware.SweptMembershipsTotal.WithLabelValues("stale_pending").Add(float64(report.StalePending))
			if report.Expired > 0 || report.StalePending > 0 {
				logger.Info("memberships swept",
					slog.Int("expired", report.Expired),
					slog.Int64("stale_pending", report.StalePending),
				)
			}
		})
	})
	if err != nil {
		log.Fatalf("invalid memberships schedule %q: %v", cfg.Sweep.MembershipsSchedule, err)
	}

	logger.Info("Sweeper started",
		slog.String("appointments_schedule", cfg.Sweep.AppointmentsSchedule),
		slog.String("memberships_schedule", cfg.Sweep.MembershipsSchedule),
	)
	scheduler.Start()

	// Ждём сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down sweeper...")

	// Останавливаем планировщик и дожидаемся текущих задач
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", slog.String("error", err.Error()))
	}
	if err := c.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Sweeper stopped gracefully")
}

// withLock выполняет job под распределённой блокировкой. Если блокировку
// держит другой инстанс, проход молча пропускается.
func withLock(ctx context.Context, rs *redsync.Redsync, key string, cfg *config.Config, logger *slog.Logger, job func(context.Context)) {
	mutex := rs.NewMutex(key,
		redsync.WithExpiry(cfg.Sweep.LockTTL),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) {
			logger.Debug("sweep skipped, lock held elsewhere", slog.String("lock", key))
			return
		}
		logger.Error("failed to acquire sweep lock", slog.String("lock", key), slog.String("error", err.Error()))
		return
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			logger.Warn("failed to release sweep lock", slog.String("lock", key), slog.String("error", err.Error()))
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, cfg.Sweep.LockTTL)
	defer cancel()

	job(jobCtx)
}
