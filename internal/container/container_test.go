package container

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.config)
}

func TestNew_DefaultClock(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Production clock by default
	assert.IsType(t, ports.SystemClock{}, c.clock)
}

func TestContainer_Config(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Equal(t, cfg, c.Config())
}

func TestContainer_Logger_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Logger is nil before initialization
	assert.Nil(t, c.Logger())
}

func TestContainer_Pool_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Pool is nil before initialization
	assert.Nil(t, c.Pool())
}

func TestContainer_NATS_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.NATS())
}

func TestContainer_HTTPServer_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Server is nil before initialization
	assert.Nil(t, c.HTTPServer())
}

func TestContainer_MembershipRepository_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Repo is nil before initialization
	assert.Nil(t, c.MembershipRepository())
}

func TestContainer_AppointmentRepository_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Repo is nil before initialization
	assert.Nil(t, c.AppointmentRepository())
}

func TestContainer_PaymentRepository_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// Repo is nil before initialization
	assert.Nil(t, c.PaymentRepository())
}

func TestContainer_UnitOfWork_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	// UoW is nil before initialization
	assert.Nil(t, c.UnitOfWork())
}

func TestContainer_BookAppointmentUseCase_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.BookAppointmentUseCase())
}

func TestContainer_SweepMissedAppointmentsUseCase_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.SweepMissedAppointmentsUseCase())
}

func TestContainer_SweepMembershipsUseCase_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.SweepMembershipsUseCase())
}

func TestContainer_InitiatePaymentUseCase_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.InitiatePaymentUseCase())
}

func TestContainer_ReconcileCallbackUseCase_BeforeInit(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	assert.Nil(t, c.ReconcileCallbackUseCase())
}

func TestContainer_initLogger_AllLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown", ""}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Level = level

			c := New(cfg)
			logger := c.initLogger()

			require.NotNil(t, logger)
		})
	}
}

func TestContainer_initLogger_AllFormats(t *testing.T) {
	formats := []string{"json", "text", "unknown", ""}

	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			cfg := config.Development()
			cfg.Log.Format = format

			c := New(cfg)
			logger := c.initLogger()

			require.NotNil(t, logger)
		})
	}
}

// ContainerBuilder Tests

func TestNewBuilder(t *testing.T) {
	cfg := config.Development()
	builder := NewBuilder(cfg)

	require.NotNil(t, builder)
	assert.Equal(t, cfg, builder.cfg)
}

func TestContainerBuilder_WithLogger(t *testing.T) {
	cfg := config.Development()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	builder := NewBuilder(cfg).WithLogger(logger)

	assert.Equal(t, logger, builder.logger)
}

func TestContainerBuilder_WithPool(t *testing.T) {
	cfg := config.Development()

	// nil pool for testing builder chain
	builder := NewBuilder(cfg).WithPool(nil)

	assert.Nil(t, builder.pool)
}

func TestContainerBuilder_WithEventPublisher(t *testing.T) {
	cfg := config.Development()

	// nil publisher for testing builder chain
	builder := NewBuilder(cfg).WithEventPublisher(nil)

	assert.Nil(t, builder.eventPublisher)
}

func TestContainerBuilder_WithClock(t *testing.T) {
	cfg := config.Development()
	clock := ports.FixedClock{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	builder := NewBuilder(cfg).WithClock(clock)

	assert.Equal(t, clock, builder.clock)
}

func TestContainerBuilder_Chain(t *testing.T) {
	cfg := config.Development()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	builder := NewBuilder(cfg).
		WithLogger(logger).
		WithPool(nil).
		WithEventPublisher(nil)

	assert.Equal(t, cfg, builder.cfg)
	assert.Equal(t, logger, builder.logger)
}

// Shutdown Tests

func TestContainer_Shutdown_NilComponents(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)
	c.logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Should not panic with nil components
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := c.Shutdown(ctx)
	assert.NoError(t, err)
}

// Initialize Tests (with expected failures for no DB)

func TestContainer_Initialize_NoDB(t *testing.T) {
	cfg := config.Development()
	cfg.Database.Host = "invalid-host-that-does-not-exist"
	cfg.Database.Port = 59999

	c := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Initialize(ctx)

	// Should fail because database is not available
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

// Edge Cases

func TestContainer_MultipleNew(t *testing.T) {
	cfg1 := config.Development()
	cfg2 := config.Test()

	c1 := New(cfg1)
	c2 := New(cfg2)

	assert.NotEqual(t, c1, c2)
	assert.Equal(t, cfg1, c1.Config())
	assert.Equal(t, cfg2, c2.Config())
}

func TestContainerBuilder_Build_WithoutPool(t *testing.T) {
	cfg := config.Development()
	cfg.Database.Host = "invalid-host"
	cfg.Database.Port = 59999

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewBuilder(cfg).
		WithLogger(logger).
		Build(ctx)

	// Should fail - no pool provided and DB connection fails
	assert.Error(t, err)
}
