package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/carehours/backend/internal/application/audit"
	billingapp "github.com/carehours/backend/internal/application/billing"
	directoryapp "github.com/carehours/backend/internal/application/directory"
	documentapp "github.com/carehours/backend/internal/application/document"
	identityapp "github.com/carehours/backend/internal/application/identity"
	notificationapp "github.com/carehours/backend/internal/application/notification"
	payrollapp "github.com/carehours/backend/internal/application/payroll"
	reportapp "github.com/carehours/backend/internal/application/report"
	timesheetapp "github.com/carehours/backend/internal/application/timesheet"
	"github.com/carehours/backend/internal/infrastructure/auth"
	"github.com/carehours/backend/internal/infrastructure/cache"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/carehours/backend/internal/infrastructure/event"
	"github.com/carehours/backend/internal/infrastructure/logger"
	"github.com/carehours/backend/internal/infrastructure/mail"
	"github.com/carehours/backend/internal/infrastructure/persistence"
	"github.com/carehours/backend/internal/infrastructure/printing"
	reportinfra "github.com/carehours/backend/internal/infrastructure/report"
	"github.com/carehours/backend/internal/infrastructure/scheduler"
	"github.com/carehours/backend/internal/infrastructure/storage"
	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/carehours/backend/internal/interfaces/http/handler"
	"github.com/carehours/backend/internal/interfaces/http/middleware"
	"github.com/carehours/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/carehours/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:generate swag init --v3.1 -g main.go -d ./,../../internal/interfaces/http/handler -o ../../docs

//	@title			CareHours API
//	@version		1.0
//	@description	Timesheets, billing, payroll reconciliation and documents for care providers.

//	@contact.name	CareHours Engineering

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry comes first so the logger can be teed into OTLP
	tel, err := telemetry.Setup(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = tel.WrapLogger(log, zapcore.InfoLevel)
	defer func() {
		_ = log.Sync()
	}()

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Running() {
		tel.EnableSpanProfiles()
	}

	log.Info("Starting CareHours backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", handler.Version),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentGorm(db.DB, cfg.Database.Driver); err != nil {
			log.Warn("Failed to instrument database", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBStats(db.DB, cfg.Database.DBName); err != nil {
		log.Warn("Failed to register database stats", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	providerRepo := persistence.NewGormProviderRepository(db.DB)
	insuranceRepo := persistence.NewGormInsuranceRepository(db.DB)
	timesheetRepo := persistence.NewGormTimesheetRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	classRepo := persistence.NewGormCommunityClassRepository(db.DB)
	communityInvoiceRepo := persistence.NewGormCommunityInvoiceRepository(db.DB)
	payrollRepo := persistence.NewGormPayrollImportRepository(db.DB)
	documentRepo := persistence.NewGormFormDocumentRepository(db.DB)
	emailRepo := persistence.NewGormEmailQueueRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	// Event bus: audit trail and business counters
	eventBus := event.NewInMemoryEventBus(log)
	auditService := auditapp.NewAuditService(auditRepo, log)
	eventBus.Subscribe(auditapp.NewEventHandler(auditService))
	if tel.Enabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(tel.Meter("carehours"))
		if err != nil {
			log.Fatal("Failed to create business metrics", zap.Error(err))
		}
		eventBus.Subscribe(businessMetrics)
	}
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Documents: templates rendered to PDF by headless Chrome, stored in S3
	templates, err := printing.NewTemplateEngine(
		printing.WithLocale(cfg.Billing.Locale),
		printing.WithCurrency(cfg.Billing.Currency),
	)
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}
	renderer := printing.NewChromedpRenderer(cfg.Printing, log)
	generator := printing.NewGenerator(templates, renderer, printing.ParsePaperSize(cfg.Printing.PaperSize), log)
	objectStorage, err := newObjectStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewTokenBlacklist(cfg.Redis, log)
	authService := identityapp.NewAuthService(userRepo, roleRepo, jwtService, blacklist, auditService,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LockDuration:     cfg.Security.LockDuration,
		}, log)
	userService := identityapp.NewUserService(userRepo, roleRepo, providerRepo, eventBus, log)
	roleService := identityapp.NewRoleService(roleRepo, userRepo, eventBus, log)

	clientService := directoryapp.NewClientService(clientRepo, insuranceRepo, eventBus, log)
	providerService := directoryapp.NewProviderService(providerRepo, eventBus, log)
	insuranceService := directoryapp.NewInsuranceService(insuranceRepo, clientRepo, eventBus, log)

	emailService := notificationapp.NewEmailService(emailRepo, log)
	documentService := documentapp.NewDocumentService(documentRepo, documentapp.Sources{
		Invoices:          invoiceRepo,
		CommunityInvoices: communityInvoiceRepo,
		Classes:           classRepo,
		Timesheets:        timesheetRepo,
		PayrollImports:    payrollRepo,
		Clients:           clientRepo,
		Providers:         providerRepo,
		Insurances:        insuranceRepo,
	}, generator, objectStorage, eventBus, printing.Company{
		Name:    cfg.Billing.CompanyName,
		Address: cfg.Billing.CompanyAddress,
	}, log)

	timesheetService := timesheetapp.NewTimesheetService(timesheetRepo, providerRepo, clientRepo,
		emailService, cfg.Email.ReviewerAddresses, eventBus, log)

	billingOpts := billingapp.Options{
		PaymentTermsDays: cfg.Billing.PaymentTermsDays,
		CompanyName:      cfg.Billing.CompanyName,
		Currency:         cfg.Billing.Currency,
	}
	txScope := persistence.NewGormBillingTransactionScope(db.DB)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, timesheetRepo, clientRepo, insuranceRepo,
		txScope, documentService, emailService, billingOpts, eventBus, log)
	communityService := billingapp.NewCommunityService(classRepo, communityInvoiceRepo, clientRepo, providerRepo,
		txScope, documentService, emailService, billingOpts, eventBus, log)

	payrollService := payrollapp.NewPayrollService(payrollRepo, providerRepo, timesheetRepo, eventBus, log)
	reportService := reportapp.NewReportService(reportinfra.NewSQLRepository(sqlDB, cfg.Database.Driver))

	if cfg.Bootstrap.Enabled {
		if err := bootstrapAdmin(cfg.Bootstrap, userRepo, roleRepo, log); err != nil {
			log.Fatal("Failed to bootstrap admin", zap.Error(err))
		}
	}

	// Email drainer
	var jobs handler.JobRunner
	var jobScheduler *scheduler.Scheduler
	if cfg.Email.DrainEnabled {
		sender, err := mail.NewSender(cfg.Email, log)
		if err != nil {
			log.Fatal("Failed to create mail sender", zap.Error(err))
		}
		drainer := notificationapp.NewDrainer(emailRepo, sender, documentService, notificationapp.DrainerConfig{
			BatchSize:    cfg.Email.BatchSize,
			RetryBase:    cfg.Email.RetryBase,
			SendTimeout:  cfg.Email.SendTimeout,
			SendingLease: cfg.Email.SendingLease,
		}, log)

		jobScheduler = scheduler.NewScheduler(scheduler.DefaultConfig(), log)
		if err := jobScheduler.Register(cfg.Email.DrainSchedule, drainer); err != nil {
			log.Fatal("Failed to schedule email drainer", zap.Error(err))
		}
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		jobs = jobScheduler
		log.Info("Email drainer scheduled", zap.String("schedule", cfg.Email.DrainSchedule))
	}

	// HTTP
	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Role:      handler.NewRoleHandler(roleService),
		Client:    handler.NewClientHandler(clientService),
		Provider:  handler.NewProviderHandler(providerService),
		Insurance: handler.NewInsuranceHandler(insuranceService),
		Timesheet: handler.NewTimesheetHandler(timesheetService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		Community: handler.NewCommunityHandler(communityService),
		Payroll:   handler.NewPayrollHandler(payrollService),
		Document:  handler.NewDocumentHandler(documentService),
		Email:     handler.NewEmailHandler(emailService, jobs),
		Report:    handler.NewReportHandler(reportService),
		Audit:     handler.NewAuditHandler(auditService),
		System:    handler.NewSystemHandler(cfg.App.Name, db),

		Idempotency: middleware.Idempotency(idempotencyStore, cfg.Security.IdempotencyTTL, log),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	engine.Use(middleware.HTTPMetrics("/health", "/metrics"))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, cfg.HTTP.MaxUploadSize))

	stopCleanup := make(chan struct{})
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		go limiter.RunCleanup(time.Minute, stopCleanup)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Outside API versioning
	engine.GET("/health", handlers.System.Health)
	if cfg.Telemetry.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))
	}
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/ping")
	jwtConfig.Logger = log

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.TenantMiddleware(),
			middleware.RequestContext(),
			middleware.SpanEnricher(),
			middleware.Profiling(),
		),
	)
	router.RegisterGroups(r, router.Groups(handlers)).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	close(stopCleanup)

	// Jobs stop before the database closes
	if jobScheduler != nil {
		if err := jobScheduler.Stop(ctx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := renderer.Close(); err != nil {
		log.Error("Error closing PDF renderer", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage returns S3 storage when configured and an in-memory store
// otherwise. Documents kept in memory do not survive a restart.
func newObjectStorage(cfg *config.Config, log *zap.Logger) (documentapp.ObjectStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, documents are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}

	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
	)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Object storage ready", zap.String("bucket", s3.GetBucket()))
	return s3, nil
}

// bootstrapAdmin seeds the ADMIN role and the first admin user of a tenant
func bootstrapAdmin(cfg config.BootstrapConfig, userRepo *persistence.GormUserRepository, roleRepo *persistence.GormRoleRepository, log *zap.Logger) error {
	tenantID, err := uuid.Parse(cfg.TenantID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return identityapp.NewBootstrapper(userRepo, roleRepo, log).Run(ctx, identityapp.BootstrapInput{
		TenantID: tenantID,
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Email:    cfg.AdminEmail,
	})
}
