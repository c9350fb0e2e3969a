package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expenselens/internal/api"
	"expenselens/internal/api/handlers"
	"expenselens/internal/repository"
	"expenselens/internal/service"
	"expenselens/pkg/config"
	"expenselens/pkg/logger"
	"expenselens/pkg/sqlite"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting expenselens service")

	// Open the expense store
	ctx := context.Background()
	db, err := sqlite.Open(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repository
	expenseRepo := repository.NewExpenseRepository(db, appLogger)

	// Initialize services
	llmService := service.NewLLMService(&cfg.LLM, appLogger)
	parserService := service.NewParserService(&cfg.Parser, appLogger)
	extractService := service.NewExtractService(llmService, appLogger)
	ingestService := service.NewIngestService(parserService, extractService, expenseRepo, appLogger)
	qaService := service.NewQAService(llmService, expenseRepo, appLogger)

	// Initialize handlers
	statementHandler := handlers.NewStatementHandler(ingestService, expenseRepo, cfg.Upload.Dir, appLogger)
	questionHandler := handlers.NewQuestionHandler(qaService, appLogger)

	// Setup router
	app := api.SetupRouter(statementHandler, questionHandler)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
