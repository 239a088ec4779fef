package services

import (
	"context"
	"net/http"
	"sync"

	"med-assistant/config"
	"med-assistant/memory"
	"med-assistant/web/format"
	"med-assistant/web/types"

	"go.uber.org/zap"
)

// AnswerPipeline is the retrieval-fusion pipeline as seen by the orchestrator.
type AnswerPipeline interface {
	Answer(ctx context.Context, question, history string) (string, error)
}

// ChatService orchestrates a chat request: read history, run the pipeline,
// commit both turns to memory, then stream the answer back in chunks.
type ChatService struct {
	pipeline      AnswerPipeline
	sessions      *memory.Store
	streamService *StreamService
	cfg           *config.Config
	logger        *zap.Logger
}

func NewChatService(
	pipeline AnswerPipeline,
	sessions *memory.Store,
	streamService *StreamService,
	cfg *config.Config,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		pipeline:      pipeline,
		sessions:      sessions,
		streamService: streamService,
		cfg:           cfg,
		logger:        logger,
	}
}

// StreamChatResponse runs the pipeline to completion and emits the answer as
// chunked SSE events. On any pipeline failure a single error chunk is
// written and memory is left untouched: the user turn and the assistant turn
// are recorded together or not at all. Memory is updated before streaming
// begins, so a mid-stream disconnect does not lose the conversation.
func (cs *ChatService) StreamChatResponse(ctx context.Context, w http.ResponseWriter, req types.ChatRequest) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = types.DefaultSessionID
	}
	var writeMu sync.Mutex

	history := cs.sessions.History(sessionID, cs.cfg.HistoryTurns)

	answer, err := cs.pipeline.Answer(ctx, req.Message, history)
	if err != nil {
		cs.logger.Error("Chat pipeline failed",
			zap.Error(err),
			zap.String("session_id", sessionID))
		errData := types.StreamData{Text: "Error: " + err.Error()}
		if writeErr := cs.streamService.WriteSSEData(ctx, w, errData, &writeMu); writeErr != nil {
			cs.logger.Error("Failed to write error chunk", zap.Error(writeErr))
		}
		return
	}

	cs.sessions.Append(sessionID, "user", req.Message)
	cs.sessions.Append(sessionID, "assistant", answer)

	if err := cs.streamService.EmitChunks(ctx, w, &writeMu, answer, cs.cfg.StreamChunkSize, cs.cfg.StreamChunkDelay); err != nil {
		// Client gone; memory already holds the full exchange
		cs.logger.Info("Chat stream interrupted",
			zap.Error(err),
			zap.String("session_id", sessionID))
		return
	}

	done := types.StreamData{Done: true, Rendered: format.MarkdownToHTML(answer)}
	if err := cs.streamService.WriteSSEData(ctx, w, done, &writeMu); err != nil {
		cs.logger.Error("Failed to send done event", zap.Error(err))
	}
}

// ClearSession removes a session's history. Reports whether one existed.
func (cs *ChatService) ClearSession(sessionID string) bool {
	cleared := cs.sessions.Clear(sessionID)
	cs.logger.Info("Cleared session memory",
		zap.String("session_id", sessionID),
		zap.Bool("found", cleared))
	return cleared
}
