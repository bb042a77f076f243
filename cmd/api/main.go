package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightline-health/intake-ai-platform/cmd/mainconfig"
	"github.com/brightline-health/intake-ai-platform/internal/api/router"
	"github.com/brightline-health/intake-ai-platform/internal/app/bootstrap"
	appconfig "github.com/brightline-health/intake-ai-platform/internal/config"
	"github.com/brightline-health/intake-ai-platform/internal/history"
	"github.com/brightline-health/intake-ai-platform/internal/http/handlers"
	"github.com/brightline-health/intake-ai-platform/internal/notify"
	"github.com/brightline-health/intake-ai-platform/internal/observability/metrics"
	"github.com/brightline-health/intake-ai-platform/internal/patients"
	"github.com/brightline-health/intake-ai-platform/internal/scheduling"
	"github.com/brightline-health/intake-ai-platform/internal/symptoms"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	clinicLoc := scheduling.ClinicLocation(cfg.ClinicTimezone)

	// Catalog and symptom index.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	cat, err := bootstrap.BuildCatalog(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	index, err := bootstrap.BuildSymptomIndex(ctx, cfg, cat, redisClient, logger)
	if err != nil {
		logger.Error("failed to build symptom index", "error", err)
		os.Exit(1)
	}

	matcher := symptoms.NewMatcher(index, cat, symptoms.MatcherOptions{
		Neighbors:      cfg.IndexNeighbors,
		SuggestionCap:  cfg.SuggestedSymptomCap,
		RetryAttempts:  cfg.IndexRetryMaxAttempts,
		RetryBaseDelay: cfg.IndexRetryBaseDelay,
	}, logger)

	// Patient directory.
	var patientRepo *patients.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		patientRepo = patients.NewRepository(pool)
	}

	// Scheduling.
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	calendarStore := scheduling.NewDynamoCalendarStore(dynamoClient, cfg.AppointmentsTable, cfg.ConflictBuffer, logger)

	intakeMetrics := metrics.NewIntakeMetrics(prometheus.DefaultRegisterer)

	var notifier scheduling.Notifier
	if patientRepo != nil {
		var sender notify.EmailSender
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sg != nil {
			sender = sg
		} else {
			sender = notify.NewStubEmailSender(logger)
			logger.Warn("confirmation emails disabled (SENDGRID_API_KEY not set)")
		}
		notifier = notify.NewConfirmationNotifier(sender, patientRepo, clinicLoc, logger)
	}

	scheduler := scheduling.NewScheduler(calendarStore, scheduling.SchedulerOptions{
		Duration: cfg.AppointmentDuration,
		Buffer:   cfg.ConflictBuffer,
		Location: clinicLoc,
	}, notifier, intakeMetrics, logger)

	// Conversation-history flushes. With the memory queue an inline worker
	// drains summaries inside this process.
	recorder, stopWorker := buildRecorder(ctx, cfg, awsCfg, logger)
	defer stopWorker()

	// HTTP surface.
	intakeHandler := handlers.NewIntakeHandler(matcher, intakeMetrics, cfg.MatchTimeout, logger)
	historyHandler := handlers.NewHistoryHandler(recorder, logger)
	appointmentsHandler := handlers.NewAppointmentsHandler(scheduler, logger)
	var portalHandler *handlers.PortalHandler
	if patientRepo != nil {
		portalHandler = handlers.NewPortalHandler(patientRepo, logger)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		IntakeHandler:       intakeHandler,
		HistoryHandler:      historyHandler,
		AppointmentsHandler: appointmentsHandler,
		PortalHandler:       portalHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PortalLoginRate:     cfg.PortalLoginRate,
		PortalLoginBurst:    cfg.PortalLoginBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildRecorder wires the summary publisher. With the memory queue an
// inline worker drains summaries into DynamoDB from this process; with SQS
// the standalone history-worker binary owns persistence. The returned stop
// function shuts down the inline worker.
func buildRecorder(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (history.Recorder, func()) {
	if cfg.UseMemoryQueue || cfg.SummaryQueueURL == "" {
		queue := history.NewMemoryQueue(256)
		store := history.NewSummaryStore(dynamodb.NewFromConfig(awsCfg), cfg.SummariesTable, logger)
		worker := history.NewWorker(queue, store, logger, history.WithWorkerCount(cfg.WorkerCount))

		workerCtx, cancel := context.WithCancel(ctx)
		worker.Start(workerCtx)
		logger.Info("inline history worker started", "workers", cfg.WorkerCount)
		return history.NewPublisher(queue, logger), func() {
			cancel()
			worker.Wait()
		}
	}

	queue := history.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.SummaryQueueURL)
	return history.NewPublisher(queue, logger), func() {}
}
