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
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/config"
	"github.com/classdesk/classdesk-api/internal/database"
	"github.com/classdesk/classdesk-api/internal/handler"
	"github.com/classdesk/classdesk-api/internal/middleware"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
	"github.com/classdesk/classdesk-api/internal/repository"
	"github.com/classdesk/classdesk-api/internal/router"
	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		// Cross-instance invalidation is optional; a single instance runs
		// fine without the bus.
		logger.Warn().Err(err).Msg("nats unavailable, events stay instance-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	platform, err := upstream.New(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		Token:   cfg.UpstreamToken,
		Timeout: cfg.UpstreamTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create upstream client: %v", err)
	}

	var summarizer ai.Summarizer
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAISummarizer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai summarizer: %v", err)
		}
		summarizer = openAI
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityLogRepository(db)
	activityService := service.NewActivityService(activityRepo, logger)

	eventService := service.NewEventService(redisClient, cfg.EventChannelBase, natsConn, logger)

	viewStore := service.NewViewStore()
	viewService := service.NewAssignmentViewService(platform, viewStore, redisClient, cfg.ViewCacheTTL, logger)
	mutationService := service.NewRosterMutationService(platform, viewStore, viewService, activityService, eventService, logger)
	contentService := service.NewContentService(platform, activityService, eventService, logger)
	reviewService := service.NewReviewService(platform, viewService, activityService, summarizer, logger)
	billingService := service.NewBillingService(platform, redisClient, cfg.SubscriptionTTL, eventService, logger)

	viewHandler := handler.NewAssignmentViewHandler(viewService, logger)
	rosterHandler := handler.NewRosterHandler(mutationService, logger)
	contentHandler := handler.NewContentHandler(contentService, validate, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	billingHandler := handler.NewBillingHandler(billingService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	eventsHandler := handler.NewEventsHandler(eventService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ViewHandler:     viewHandler,
		RosterHandler:   rosterHandler,
		ContentHandler:  contentHandler,
		ReviewHandler:   reviewHandler,
		BillingHandler:  billingHandler,
		ActivityHandler: activityHandler,
		EventsHandler:   eventsHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	eventService.Start(busCtx)

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
