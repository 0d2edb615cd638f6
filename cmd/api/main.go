package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/kafka"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	outboxService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/outbox"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	ruleService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/rule"
	scheduleService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/schedule"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if err := database.Migrate(dsn); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var ruleCache cache.Cache = cache.NoopCache{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		ruleCache = redisCache
	} else {
		logger.Warn("REDIS_ADDR not set; rule cache disabled")
	}

	// Repositories
	tx := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	ruleRepo := postgresql.NewRuleRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	outboxRepo := postgresql.NewOutboxRepository(db)

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	scheduleSvc := scheduleService.NewScheduleService(tx, workScheduleRepo, employeeRepo, logger)
	ruleSvc := ruleService.NewRuleService(ruleRepo, ruleCache, cfg.Redis.RuleTTL, logger)
	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		employeeRepo,
		scheduleSvc,
		ruleSvc,
		cfg.App.Timezone,
		logger,
	)
	payrollSvc := payrollService.NewPayrollService(
		tx,
		payrollRepo,
		employeeRepo,
		attendanceRepo,
		outboxRepo,
		logger,
	)

	// Background jobs
	scheduler := cron.NewScheduler(logger)
	cron.NewAttendanceJobs(attendanceSvc, cfg.App.Timezone, logger).
		RegisterJobs(scheduler, cfg.Jobs.AbsenceCheckInterval)

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers)
		defer publisher.Close()

		dispatcher := outboxService.NewDispatcher(outboxRepo, publisher, cfg.Jobs.OutboxBatchSize, logger)
		cron.NewOutboxJobs(dispatcher).RegisterJobs(scheduler, cfg.Jobs.OutboxPollInterval)
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay pending")
	}

	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(JWTService, logger, cfg.App.AllowedOrigins, appHTTP.Handlers{
		Schedule:   appHTTP.NewScheduleHandler(scheduleSvc, cfg.App.Timezone),
		Rule:       appHTTP.NewRuleHandler(ruleSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(app config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")

	level := slog.LevelInfo
	switch strings.ToLower(app.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll-engine"),
		slog.String("env", app.Env),
	)
}
