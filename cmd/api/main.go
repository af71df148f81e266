package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/config"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/database"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/events"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/execution"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/handler"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/middleware"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/router"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/service"
	cloud "github.com/kc-conquers-code11/AcadFlow-sub001/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{}, &models.Subject{}, &models.Assignment{},
		&models.Submission{}, &models.ExecutionRun{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis backs the report cache; the service degrades to live
	// aggregation without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, report caching disabled")
	}

	// Lifecycle events are fan-out only; a missing broker never blocks
	// the submission flows.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats not configured, lifecycle events disabled")
	}
	publisher := events.NewPublisher(natsConn, cfg.EventSubjectPrefix, logger)

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudService
	} else {
		logger.Warn().Msg("cloudinary not configured, assignment attachments disabled")
	}

	backendClient, err := execution.NewHTTPClient(execution.ClientConfig{
		BaseURL: cfg.ExecutionBackendURL,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create execution client: %v", err)
	}

	registry := language.Default()
	policy := execution.Policy{
		RunTimeout:    cfg.RunTimeout,
		GradedTimeout: cfg.GradedRunTimeout,
		MaxRetries:    cfg.ExecutionMaxRetries,
		BackoffBase:   cfg.ExecutionBackoffBase,
	}
	if cfg.ExecutionMaxRetries == 0 {
		// The default config carries 2; an explicit zero means no retries.
		policy.MaxRetries = -1
	}
	orchestrator := execution.NewOrchestrator(registry, backendClient, policy, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	runRepo := repository.NewExecutionRunRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, subjectRepo, registry, validate, uploader, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, subjectRepo, runRepo, orchestrator, publisher, validate, logger)
	runService := service.NewRunService(submissionRepo, runRepo, orchestrator, validate, logger)
	reportService := service.NewReportService(assignmentRepo, submissionRepo, subjectRepo, redisClient, cfg.ReportCacheTTL, logger)
	profileService := service.NewProfileService(profileRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		RunHandler:        handler.NewRunHandler(runService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		ProfileHandler:    handler.NewProfileHandler(profileService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
