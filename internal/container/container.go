// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (lazy initialization)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	natsio "github.com/nats-io/nats.go"

	"github.com/Haleralex/gymhub/internal/adapters/http"
	"github.com/Haleralex/gymhub/internal/adapters/http/middleware"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/application/usecases/booking"
	"github.com/Haleralex/gymhub/internal/application/usecases/membership"
	"github.com/Haleralex/gymhub/internal/application/usecases/payment"
	"github.com/Haleralex/gymhub/internal/config"
	"github.com/Haleralex/gymhub/internal/infrastructure/gateway/momo"
	natsmsg "github.com/Haleralex/gymhub/internal/infrastructure/messaging/nats"
	"github.com/Haleralex/gymhub/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/gymhub/internal/pkg/logger"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool     *pgxpool.Pool
	natsConn *natsio.Conn

	// Repositories
	membershipRepo  ports.MembershipRepository
	appointmentRepo ports.AppointmentRepository
	trainerRepo     ports.TrainerRepository
	paymentRepo     ports.PaymentRepository
	packageRepo     ports.PackageRepository
	promotionRepo   ports.PromotionRepository
	outboxRepo      *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Event Publisher (outbox) + relay в NATS
	eventPublisher ports.EventPublisher
	natsPublisher  *natsmsg.Publisher
	outboxPoller   *natsmsg.OutboxPoller

	// Payment gateway
	gateway ports.PaymentGateway

	// Clock
	clock ports.Clock

	// Use Cases
	bookAppointmentUC       *booking.BookAppointmentUseCase
	cancelAppointmentUC     *booking.CancelAppointmentUseCase
	confirmAppointmentUC    *booking.ConfirmAppointmentUseCase
	rescheduleAppointmentUC *booking.RescheduleAppointmentUseCase
	getAppointmentUC        *booking.GetAppointmentUseCase
	listAppointmentsUC      *booking.ListAppointmentsUseCase
	trainerAvailabilityUC   *booking.TrainerAvailabilityUseCase
	sweepMissedUC           *booking.SweepMissedAppointmentsUseCase
	initiatePaymentUC       *payment.InitiatePaymentUseCase
	reconcileCallbackUC     *payment.ReconcileCallbackUseCase
	getPaymentStatusUC      *payment.GetPaymentStatusUseCase
	getActiveMembershipUC   *membership.GetActiveMembershipUseCase
	getMembershipUC         *membership.GetMembershipUseCase
	pauseMembershipUC       *membership.PauseMembershipUseCase
	resumeMembershipUC      *membership.ResumeMembershipUseCase
	sweepMembershipsUC      *membership.SweepMembershipsUseCase

	// HTTP
	httpServer *http.Server

	// Фоновый relay outbox -> NATS
	pollerCancel context.CancelFunc
	pollerDone   chan struct{}
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
		clock:  ports.SystemClock{},
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	// 1. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 2. NATS
	if err := c.initNATS(); err != nil {
		return fmt.Errorf("failed to initialize NATS: %w", err)
	}
	c.logger.Info("NATS connected")

	// 3. Repositories
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// 4. Payment gateway
	c.initGateway()
	c.logger.Info("Payment gateway initialized")

	// 5. Use Cases
	c.initUseCases()
	c.logger.Info("Use cases initialized")

	// 6. Outbox poller
	c.initOutboxPoller()
	c.logger.Info("Outbox poller initialized")

	// 7. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() *slog.Logger {
	l := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(l)
	return l
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		Database:        c.config.Database.Database,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		SSLMode:         c.config.Database.SSLMode,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
		ConnectTimeout:  c.config.Database.ConnectTimeout,
	})
	if err != nil {
		return err
	}

	c.pool = pool
	return nil
}

// initNATS инициализирует подключение к брокеру событий.
//
// MaxReconnects(-1) — соединение переживает рестарты брокера; пока брокер
// недоступен, события копятся в outbox и доезжают после reconnect'а.
func (c *Container) initNATS() error {
	conn, err := natsio.Connect(
		c.config.NATS.URL,
		natsio.Name(c.config.NATS.Name),
		natsio.MaxReconnects(c.config.NATS.MaxReconnects),
		natsio.ReconnectWait(c.config.NATS.ReconnectWait),
		natsio.Timeout(c.config.NATS.ConnectTimeout),
		natsio.DisconnectErrHandler(func(_ *natsio.Conn, err error) {
			if err != nil {
				c.logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		natsio.ReconnectHandler(func(nc *natsio.Conn) {
			c.logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", c.config.NATS.URL, err)
	}

	c.natsConn = conn
	return nil
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.membershipRepo = postgres.NewMembershipRepository(c.pool)
	c.appointmentRepo = postgres.NewAppointmentRepository(c.pool)
	c.trainerRepo = postgres.NewTrainerRepository(c.pool)
	c.paymentRepo = postgres.NewPaymentRepository(c.pool)
	c.packageRepo = postgres.NewPackageRepository(c.pool)
	c.promotionRepo = postgres.NewPromotionRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	// Event Publisher (OutboxRepository реализует интерфейс)
	c.eventPublisher = c.outboxRepo
}

// initGateway инициализирует клиент платёжного шлюза.
func (c *Container) initGateway() {
	c.gateway = momo.NewClient(momo.Config{
		Endpoint:    c.config.MoMo.Endpoint,
		PartnerCode: c.config.MoMo.PartnerCode,
		AccessKey:   c.config.MoMo.AccessKey,
		SecretKey:   c.config.MoMo.SecretKey,
		RedirectURL: c.config.MoMo.RedirectURL,
		IPNURL:      c.config.MoMo.IPNURL,
		RequestType: c.config.MoMo.RequestType,
		Timeout:     c.config.MoMo.Timeout,
	})
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() {
	// Booking Use Cases
	c.bookAppointmentUC = booking.NewBookAppointmentUseCase(
		c.membershipRepo,
		c.appointmentRepo,
		c.trainerRepo,
		c.packageRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.cancelAppointmentUC = booking.NewCancelAppointmentUseCase(
		c.appointmentRepo,
		c.membershipRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.confirmAppointmentUC = booking.NewConfirmAppointmentUseCase(
		c.appointmentRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.rescheduleAppointmentUC = booking.NewRescheduleAppointmentUseCase(
		c.appointmentRepo,
		c.trainerRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.getAppointmentUC = booking.NewGetAppointmentUseCase(c.appointmentRepo, c.clock)
	c.listAppointmentsUC = booking.NewListAppointmentsUseCase(c.appointmentRepo, c.clock)
	c.trainerAvailabilityUC = booking.NewTrainerAvailabilityUseCase(c.trainerRepo, c.appointmentRepo)
	c.sweepMissedUC = booking.NewSweepMissedAppointmentsUseCase(
		c.appointmentRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)

	// Payment Use Cases
	c.initiatePaymentUC = payment.NewInitiatePaymentUseCase(
		c.paymentRepo,
		c.membershipRepo,
		c.packageRepo,
		c.promotionRepo,
		c.gateway,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.reconcileCallbackUC = payment.NewReconcileCallbackUseCase(
		c.paymentRepo,
		c.membershipRepo,
		c.packageRepo,
		c.gateway,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
	c.getPaymentStatusUC = payment.NewGetPaymentStatusUseCase(c.paymentRepo, c.membershipRepo)

	// Membership Use Cases
	c.getActiveMembershipUC = membership.NewGetActiveMembershipUseCase(
		c.membershipRepo,
		c.packageRepo,
		c.clock,
	)
	c.getMembershipUC = membership.NewGetMembershipUseCase(
		c.membershipRepo,
		c.packageRepo,
		c.clock,
	)
	c.pauseMembershipUC = membership.NewPauseMembershipUseCase(
		c.membershipRepo,
		c.eventPublisher,
		c.uow,
	)
	c.resumeMembershipUC = membership.NewResumeMembershipUseCase(
		c.membershipRepo,
		c.eventPublisher,
		c.uow,
	)
	c.sweepMembershipsUC = membership.NewSweepMembershipsUseCase(
		c.membershipRepo,
		c.eventPublisher,
		c.uow,
		c.clock,
	)
}

// initOutboxPoller инициализирует relay outbox -> NATS.
func (c *Container) initOutboxPoller() {
	c.natsPublisher = natsmsg.NewPublisher(c.natsConn, c.logger)
	c.outboxPoller = natsmsg.NewOutboxPoller(
		c.outboxRepo,
		c.natsPublisher,
		c.uow,
		c.logger,
		c.config.Outbox.PollInterval,
		c.config.Outbox.BatchSize,
	)
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	// Token validator
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.MockTokenValidator
	} else {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret)
	}

	// Router Config
	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		NATS:               c.natsConn,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
		EnableTracing:      c.config.Tracing.Enabled,
	}

	// Build Router
	router := http.NewRouterBuilder(routerConfig).
		WithBookingUseCases(&http.BookingUseCases{
			BookAppointment:       c.bookAppointmentUC,
			CancelAppointment:     c.cancelAppointmentUC,
			ConfirmAppointment:    c.confirmAppointmentUC,
			RescheduleAppointment: c.rescheduleAppointmentUC,
			GetAppointment:        c.getAppointmentUC,
			ListAppointments:      c.listAppointmentsUC,
			TrainerAvailability:   c.trainerAvailabilityUC,
		}).
		WithPaymentUseCases(&http.PaymentUseCases{
			InitiatePayment:   c.initiatePaymentUC,
			ReconcileCallback: c.reconcileCallbackUC,
			GetPaymentStatus:  c.getPaymentStatusUC,
		}).
		WithMembershipUseCases(&http.MembershipUseCases{
			GetActiveMembership: c.getActiveMembershipUC,
			GetMembership:       c.getMembershipUC,
			PauseMembership:     c.pauseMembershipUC,
			ResumeMembership:    c.resumeMembershipUC,
		}).
		Build()

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// ============================================
// Background Workers
// ============================================

// StartOutboxPoller запускает relay outbox -> NATS в фоне.
func (c *Container) StartOutboxPoller(ctx context.Context) {
	pollerCtx, cancel := context.WithCancel(ctx)
	c.pollerCancel = cancel
	c.pollerDone = make(chan struct{})

	go func() {
		defer close(c.pollerDone)
		c.outboxPoller.Run(pollerCtx)
	}()
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// NATS возвращает соединение с брокером.
func (c *Container) NATS() *natsio.Conn {
	return c.natsConn
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Repository Getters
// ============================================

// MembershipRepository возвращает репозиторий абонементов.
func (c *Container) MembershipRepository() ports.MembershipRepository {
	return c.membershipRepo
}

// AppointmentRepository возвращает репозиторий записей на тренировки.
func (c *Container) AppointmentRepository() ports.AppointmentRepository {
	return c.appointmentRepo
}

// PaymentRepository возвращает репозиторий платежей.
func (c *Container) PaymentRepository() ports.PaymentRepository {
	return c.paymentRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// ============================================
// Use Case Getters
// ============================================

// BookAppointmentUseCase возвращает use case бронирования.
func (c *Container) BookAppointmentUseCase() *booking.BookAppointmentUseCase {
	return c.bookAppointmentUC
}

// SweepMissedAppointmentsUseCase возвращает sweeper пропущенных записей.
func (c *Container) SweepMissedAppointmentsUseCase() *booking.SweepMissedAppointmentsUseCase {
	return c.sweepMissedUC
}

// SweepMembershipsUseCase возвращает sweeper жизненного цикла абонементов.
func (c *Container) SweepMembershipsUseCase() *membership.SweepMembershipsUseCase {
	return c.sweepMembershipsUC
}

// InitiatePaymentUseCase возвращает use case оформления покупки.
func (c *Container) InitiatePaymentUseCase() *payment.InitiatePaymentUseCase {
	return c.initiatePaymentUC
}

// ReconcileCallbackUseCase возвращает use case сверки IPN callback'ов.
func (c *Container) ReconcileCallbackUseCase() *payment.ReconcileCallbackUseCase {
	return c.reconcileCallbackUC
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. HTTP Server - перестаём принимать запросы
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 2. Outbox poller - дожидаемся завершения текущего batch'а
	if c.pollerCancel != nil {
		c.pollerCancel()
		select {
		case <-c.pollerDone:
			c.logger.Info("Outbox poller stopped")
		case <-ctx.Done():
			c.logger.Warn("Outbox poller stop timeout")
		}
	}

	// 3. NATS - drain досылает буферизованные сообщения
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("NATS drain: %w", err))
		}
	}

	// 4. Database (даём время на завершение транзакций)
	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	natsConn       *natsio.Conn
	eventPublisher ports.EventPublisher
	gateway        ports.PaymentGateway
	clock          ports.Clock
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithNATS устанавливает готовое соединение с брокером.
func (b *ContainerBuilder) WithNATS(conn *natsio.Conn) *ContainerBuilder {
	b.natsConn = conn
	return b
}

// WithEventPublisher устанавливает кастомный event publisher.
func (b *ContainerBuilder) WithEventPublisher(ep ports.EventPublisher) *ContainerBuilder {
	b.eventPublisher = ep
	return b
}

// WithGateway устанавливает кастомный платёжный шлюз (моки в тестах).
func (b *ContainerBuilder) WithGateway(gw ports.PaymentGateway) *ContainerBuilder {
	b.gateway = gw
	return b
}

// WithClock устанавливает кастомные часы (FixedClock в тестах).
func (b *ContainerBuilder) WithClock(clock ports.Clock) *ContainerBuilder {
	b.clock = clock
	return b
}

// Build создаёт контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)

	// Use provided or initialize
	if b.logger != nil {
		c.logger = b.logger
	} else {
		c.logger = c.initLogger()
	}

	if b.clock != nil {
		c.clock = b.clock
	}

	if b.pool != nil {
		c.pool = b.pool
	} else {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if b.natsConn != nil {
		c.natsConn = b.natsConn
	} else {
		if err := c.initNATS(); err != nil {
			return nil, err
		}
	}

	c.initRepositories()

	if b.eventPublisher != nil {
		c.eventPublisher = b.eventPublisher
	}

	if b.gateway != nil {
		c.gateway = b.gateway
	} else {
		c.initGateway()
	}

	c.initUseCases()
	c.initOutboxPoller()
	c.initHTTPServer()

	return c, nil
}

// ============================================
// Run
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run(ctx context.Context) error {
	c.logger.Info("Starting GymHub API Server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	c.StartOutboxPoller(ctx)

	return c.httpServer.Run()
}
