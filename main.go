package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"med-assistant/config"
	"med-assistant/database"
	"med-assistant/ingest"
	"med-assistant/llmclient"
	"med-assistant/memory"
	"med-assistant/rag"
	"med-assistant/web"
	"med-assistant/web/services"

	"go.uber.org/zap"
)

func main() {
	ingestDir := flag.String("ingest", "", "ingest documents from this directory into the knowledge base and exit")
	flag.Parse()

	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := database.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, cfg.EmbeddingDimension); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	llm := llmclient.New(cfg, logger)

	if *ingestDir != "" {
		ingestService := ingest.NewService(cfg, store, llm, logger)
		if err := ingestService.IngestDir(ctx, *ingestDir); err != nil {
			logger.Fatal("Ingestion failed", zap.Error(err))
		}
		return
	}

	pipeline, err := rag.New(cfg, llm, llm, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize RAG pipeline", zap.Error(err))
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		logger.Warn("Could not count knowledge base documents", zap.Error(err))
	} else {
		logger.Info("Knowledge base ready", zap.Int("documents", count))
	}

	sessions := memory.NewStore(cfg.MaxSessionTurns)
	streamService := services.NewStreamService(logger)
	chatService := services.NewChatService(pipeline, sessions, streamService, cfg, logger)

	webServer := web.NewServer(chatService, logger, cfg)

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting Medical AI Assistant web server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
