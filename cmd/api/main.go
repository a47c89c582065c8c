package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complaints/backend/internal/api/handlers"
	"github.com/complaints/backend/internal/complaint"
	"github.com/complaints/backend/internal/llm"
	"github.com/complaints/backend/internal/metrics"
	"github.com/complaints/backend/internal/middleware/security"
	"github.com/complaints/backend/internal/middleware/validation"
	"github.com/complaints/backend/internal/sentiment"
	"github.com/complaints/backend/internal/storage/sqlite"
	"github.com/complaints/backend/pkg/circuitbreaker"
	"github.com/complaints/backend/pkg/config"
	appLogger "github.com/complaints/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting complaint intake API server")

	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path, cfg.SQLite.BusyTimeoutMs)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	sentimentClient := sentiment.NewClient(
		cfg.Sentiment.URL,
		cfg.Sentiment.APIKey,
		cfg.Sentiment.Timeout(),
		newBreaker("sentiment", cfg.Breaker),
	)

	llmClient, err := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout(),
		Language:  cfg.LLM.Language,
	}, newBreaker("category", cfg.Breaker))
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	if cfg.Sentiment.APIKey == "" {
		appLogger.Warn("Sentiment API key is not set; every complaint will get sentiment \"unknown\"")
	}
	if cfg.LLM.APIKey == "" {
		appLogger.Warn("LLM API key is not set; every complaint will get category \"other\"")
	}

	complaintService := complaint.NewService(sqliteClient, sentimentClient, llmClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: splitOrigins(cfg.Server.AllowedOrigins),
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxTextLength:   cfg.Validation.MaxTextLength,
		MaxStatusLength: cfg.Validation.MaxStatusLength,
		Logger:          appLogger.GetLogger(),
	}))

	healthHandler := handlers.NewHealthHandler(sqliteClient)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, metrics.MetricsHandler())
	}

	handlers.NewComplaintHandler(complaintService).Register(app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

// newBreaker returns nil when breakers are disabled; the clients then call
// their upstream unconditionally.
func newBreaker(name string, cfg config.BreakerConfig) *circuitbreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	return circuitbreaker.NewCircuitBreaker(name, circuitbreaker.Config{
		MaxRequests:      cfg.MaxRequests,
		Timeout:          cfg.OpenTimeout(),
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		OnStateChange:    metrics.ObserveBreakerState,
		Logger:           appLogger.GetLogger().Named("breaker"),
	})
}

func splitOrigins(origins string) []string {
	var out []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
