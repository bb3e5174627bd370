package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Haleralex/gymhub/internal/config"
	"github.com/Haleralex/gymhub/internal/container"
	"github.com/Haleralex/gymhub/internal/pkg/tracing"
)

func main() {
	// .env для локальной разработки; в production переменные приходят извне
	_ = godotenv.Load()

	cfg, err := config.Load("configs", "config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// Tracing (no-op если выключен)
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "gymhub-api",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatalf("failed to setup tracing: %v", err)
	}

	c := container.New(cfg)
	if err := c.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	// Run блокируется до SIGINT/SIGTERM и сам останавливает HTTP сервер
	runErr := c.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := c.Shutdown(shutdownCtx); err != nil {
		c.Logger().Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		c.Logger().Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	if runErr != nil {
		c.Logger().Error("server error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	c.Logger().Info("Server stopped gracefully")
}
