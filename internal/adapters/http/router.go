// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Middleware применяется к соответствующим группам routes
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Haleralex/gymhub/internal/adapters/http/common"
	"github.com/Haleralex/gymhub/internal/adapters/http/handlers"
	"github.com/Haleralex/gymhub/internal/adapters/http/middleware"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Database pool для health checks
	Pool *pgxpool.Pool
	// NATS соединение для health checks
	NATS *nats.Conn
	// Version приложения
	Version string
	// BuildTime время сборки
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins для CORS (production)
	AllowedOrigins []string
	// AuthTokenValidator - функция валидации токена
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
	// EnableTracing включает OpenTelemetry instrumentation
	EnableTracing bool
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.MockTokenValidator,
	}
}

// ============================================
// Use Case Providers
// ============================================

// BookingUseCases - provider для booking use cases.
type BookingUseCases struct {
	BookAppointment       handlers.BookAppointmentUseCase
	CancelAppointment     handlers.CancelAppointmentUseCase
	ConfirmAppointment    handlers.ConfirmAppointmentUseCase
	RescheduleAppointment handlers.RescheduleAppointmentUseCase
	GetAppointment        handlers.GetAppointmentUseCase
	ListAppointments      handlers.ListAppointmentsUseCase
	TrainerAvailability   handlers.GetTrainerAvailabilityUseCase
}

// PaymentUseCases - provider для payment use cases.
type PaymentUseCases struct {
	InitiatePayment   handlers.InitiatePaymentUseCase
	ReconcileCallback handlers.ReconcileCallbackUseCase
	GetPaymentStatus  handlers.GetPaymentStatusUseCase
}

// MembershipUseCases - provider для membership use cases.
type MembershipUseCases struct {
	GetActiveMembership handlers.GetActiveMembershipUseCase
	GetMembership       handlers.GetMembershipUseCase
	PauseMembership     handlers.PauseMembershipUseCase
	ResumeMembership    handlers.ResumeMembershipUseCase
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
// - Можно переиспользовать части конфигурации
type RouterBuilder struct {
	config      *RouterConfig
	booking     *BookingUseCases
	payments    *PaymentUseCases
	memberships *MembershipUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithBookingUseCases добавляет booking use cases.
func (b *RouterBuilder) WithBookingUseCases(useCases *BookingUseCases) *RouterBuilder {
	b.booking = useCases
	return b
}

// WithPaymentUseCases добавляет payment use cases.
func (b *RouterBuilder) WithPaymentUseCases(useCases *PaymentUseCases) *RouterBuilder {
	b.payments = useCases
	return b
}

// WithMembershipUseCases добавляет membership use cases.
func (b *RouterBuilder) WithMembershipUseCases(useCases *MembershipUseCases) *RouterBuilder {
	b.memberships = useCases
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	// Настраиваем режим Gin
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// Настраиваем кастомные валидаторы
	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. Tracing
	if b.config.EnableTracing {
		router.Use(otelgin.Middleware("gymhub-api"))
	}

	// 4. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 6. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 7. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.NATS,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")

	// Public routes (no auth required)
	publicGroup := v1.Group("")
	{
		// IPN callback шлюза: аутентификация - HMAC-подпись в теле,
		// Bearer-токена у шлюза нет.
		if b.payments != nil {
			paymentHandler := handlers.NewPaymentHandler(
				b.payments.InitiatePayment,
				b.payments.ReconcileCallback,
				b.payments.GetPaymentStatus,
				b.config.Logger,
			)
			publicGroup.POST("/payments/momo/ipn", paymentHandler.HandleIPN)
		}

		// Просмотр свободных слотов доступен без авторизации:
		// расписание видно и до покупки абонемента.
		if b.booking != nil {
			trainerHandler := handlers.NewTrainerHandler(b.booking.TrainerAvailability)
			trainerHandler.RegisterRoutes(publicGroup)
		}
	}

	// Protected routes (auth required)
	protectedGroup := v1.Group("")
	protectedGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
		SkipPaths:      []string{}, // Auth обязательна
	}))
	{
		// Appointment routes
		if b.booking != nil {
			appointmentHandler := handlers.NewAppointmentHandler(
				b.booking.BookAppointment,
				b.booking.CancelAppointment,
				b.booking.ConfirmAppointment,
				b.booking.RescheduleAppointment,
				b.booking.GetAppointment,
				b.booking.ListAppointments,
			)
			appointments := protectedGroup.Group("/appointments")
			{
				appointments.GET("", appointmentHandler.List)
				appointments.GET("/:id", appointmentHandler.Get)

				// Операции, тратящие или двигающие сессии,
				// под более строгим лимитом
				bookingOps := appointments.Group("")
				bookingOps.Use(middleware.BookingRateLimit())
				{
					bookingOps.POST("", appointmentHandler.Book)
					bookingOps.POST("/:id/cancel", appointmentHandler.Cancel)
					bookingOps.POST("/:id/reschedule", appointmentHandler.Reschedule)
				}

				// Подтверждение - операция персонала
				staffOps := appointments.Group("")
				staffOps.Use(middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin))
				{
					staffOps.POST("/:id/confirm", appointmentHandler.Confirm)
				}
			}
		}

		// Membership routes
		if b.memberships != nil {
			membershipHandler := handlers.NewMembershipHandler(
				b.memberships.GetActiveMembership,
				b.memberships.GetMembership,
				b.memberships.PauseMembership,
				b.memberships.ResumeMembership,
			)
			membershipHandler.RegisterRoutes(protectedGroup)
		}

		// Payment routes
		if b.payments != nil {
			paymentHandler := handlers.NewPaymentHandler(
				b.payments.InitiatePayment,
				b.payments.ReconcileCallback,
				b.payments.GetPaymentStatus,
				b.config.Logger,
			)
			payments := protectedGroup.Group("/payments")
			{
				payments.GET("/:id", paymentHandler.GetStatus)

				paymentOps := payments.Group("")
				paymentOps.Use(middleware.PaymentRateLimit())
				{
					paymentOps.POST("", paymentHandler.Initiate)
				}
			}
		}
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter создаёт роутер для development окружения.
func NewDevelopmentRouter() *gin.Engine {
	config := DefaultRouterConfig()
	config.Environment = "development"
	return NewRouter(config)
}
