package handlers

import (
	"fmt"
	"net/http"

	"med-assistant/config"
	"med-assistant/web/services"
	"med-assistant/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *services.ChatService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewChatHandler(chatService *services.ChatService, cfg *config.Config, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		cfg:         cfg,
		logger:      logger,
	}
}

// Chat handles POST /api/chat: it answers the question over SSE, one
// {"text": ...} chunk at a time, and closes the stream when done.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	h.logger.Info("Processing chat message",
		zap.String("session_id", req.SessionID),
		zap.Int("message_length", len(req.Message)))

	h.chatService.StreamChatResponse(c.Request.Context(), c.Writer, req)
}

// ClearMemory handles DELETE /api/clear-memory/:session_id. Clearing an
// unknown session succeeds as a no-op.
func (h *ChatHandler) ClearMemory(c *gin.Context) {
	sessionID := c.Param("session_id")

	cleared := h.chatService.ClearSession(sessionID)
	if cleared {
		c.JSON(http.StatusOK, types.ClearMemoryResponse{
			Message: fmt.Sprintf("Memory cleared for session %s", sessionID),
			Cleared: true,
		})
		return
	}
	c.JSON(http.StatusOK, types.ClearMemoryResponse{
		Message: fmt.Sprintf("No memory found for session %s", sessionID),
		Cleared: false,
	})
}

// Health handles GET /health.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:  "ok",
		Message: "Medical AI Assistant API is running",
		Model:   h.cfg.GenerativeModelName,
	})
}

// Root handles GET / with a static description of the service.
func (h *ChatHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, types.RootResponse{
		Message:  "Medical AI Assistant API with RAG & Memory",
		Version:  "2.0.0",
		Model:    h.cfg.GenerativeModelName,
		Features: []string{"RAG", "Reciprocal Rank Fusion", "Conversation Memory", "Streaming"},
		Endpoints: map[string]string{
			"health":       "/health",
			"chat":         "/api/chat (POST)",
			"clear_memory": "/api/clear-memory/{session_id} (DELETE)",
		},
	})
}
