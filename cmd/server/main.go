package main

import (
	"context"
	"fmt"
	"os"

	"github.com/duda4418/dishwise-backend/internal/clients/openai"
	redisclient "github.com/duda4418/dishwise-backend/internal/clients/redis"
	"github.com/duda4418/dishwise-backend/internal/db"
	apphttp "github.com/duda4418/dishwise-backend/internal/http"
	"github.com/duda4418/dishwise-backend/internal/http/handlers"
	"github.com/duda4418/dishwise-backend/internal/http/middleware"
	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/observability"
	"github.com/duda4418/dishwise-backend/internal/repos"
	"github.com/duda4418/dishwise-backend/internal/services"
	"github.com/duda4418/dishwise-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "dishwise-backend", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			_ = shutdownOTel(context.Background())
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis
	cache, err := redisclient.NewCache(log)
	if err != nil {
		log.Error("Redis init failed", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	// OpenAI
	openaiClient, err := openai.New(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos from main...")
	sessionRepo := repos.NewSessionRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	imageRepo := repos.NewImageRepo(thePG, log)
	formRepo := repos.NewFormRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	causeRepo := repos.NewCauseRepo(thePG, log)
	solutionRepo := repos.NewSolutionRepo(thePG, log)
	problemStateRepo := repos.NewProblemStateRepo(thePG, log)
	suggestionRepo := repos.NewSuggestionRepo(thePG, log)
	callLogRepo := repos.NewAICallLogRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	pricing := services.PricingFromEnv(log)
	usageRecorder := services.NewUsageRecorder(callLogRepo, pricing, log)
	catalogueService := services.NewCatalogueService(categoryRepo, causeRepo, solutionRepo, cache, log)
	contextService := services.NewContextService(messageRepo, imageRepo, formRepo, log)
	classifierService := services.NewClassifierService(catalogueService, suggestionRepo, solutionRepo, problemStateRepo, openaiClient, usageRecorder, log)
	responseService := services.NewResponseService(openaiClient, usageRecorder, log)
	imageAnalysisService := services.NewImageAnalysisService(imageRepo, openaiClient, usageRecorder, log)
	workflowService := services.NewWorkflowService(
		classifierService,
		responseService,
		contextService,
		imageAnalysisService,
		sessionRepo,
		messageRepo,
		formRepo,
		suggestionRepo,
		solutionRepo,
		log,
	)
	sessionService := services.NewSessionService(sessionRepo, messageRepo, log)
	formSubmitService := services.NewFormSubmitService(formRepo, sessionRepo, log)
	importService := services.NewImportService(categoryRepo, causeRepo, solutionRepo, catalogueService, log)
	metricsService := services.NewMetricsService(sessionRepo, messageRepo, callLogRepo, pricing, log)
	authService, err := services.NewAuthService(log)
	if err != nil {
		log.Error("Could not init AuthService", "error", err)
		os.Exit(1)
	}

	// Seed
	if seedPath := utils.GetEnv("CATALOGUE_SEED_PATH", "", log); seedPath != "" {
		if err := services.SeedCatalogue(ctx, importService, seedPath, log); err != nil {
			log.Warn("Catalogue seed failed", "error", err)
		}
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	assistantHandler := handlers.NewAssistantHandler(workflowService, sessionService, formSubmitService)
	catalogueHandler := handlers.NewCatalogueHandler(catalogueService)
	importHandler := handlers.NewImportHandler(importService)
	metricsHandler := handlers.NewMetricsHandler(metricsService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := apphttp.NewRouter(apphttp.RouterConfig{
		HealthHandler:    healthHandler,
		AuthHandler:      authHandler,
		AssistantHandler: assistantHandler,
		CatalogueHandler: catalogueHandler,
		ImportHandler:    importHandler,
		MetricsHandler:   metricsHandler,
		AuthMiddleware:   authMiddleware,
	})

	port := utils.GetEnv("SERVER_PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
