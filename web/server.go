package web

import (
	"context"
	"net/http"

	"med-assistant/config"
	"med-assistant/web/handlers"
	"med-assistant/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router      *gin.Engine
	chatService *services.ChatService
	logger      *zap.Logger
	config      *config.Config
}

func NewServer(chatService *services.ChatService, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:      router,
		chatService: chatService,
		logger:      logger,
		config:      config,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.chatService, s.config, s.logger)

	s.router.GET("/", chatHandler.Root)
	s.router.GET("/health", chatHandler.Health)
	s.router.POST("/api/chat", chatHandler.Chat)
	s.router.DELETE("/api/clear-memory/:session_id", chatHandler.ClearMemory)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
