package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"med-assistant/web/types"

	"go.uber.org/zap"
)

type StreamService struct {
	logger *zap.Logger
}

func NewStreamService(logger *zap.Logger) *StreamService {
	return &StreamService{
		logger: logger,
	}
}

// WriteSSEData is a helper to write SSE formatted data safely.
func (ss *StreamService) WriteSSEData(ctx context.Context, w http.ResponseWriter, data types.StreamData, mu *sync.Mutex) error {
	mu.Lock()
	defer mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	if err != nil {
		return err
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// EmitChunks re-emits an already-complete answer incrementally: rune-safe
// chunks of chunkSize with a delay between them for a smooth perceived
// stream. Emission stops as soon as the caller's context is cancelled;
// nothing is rolled back.
func (ss *StreamService) EmitChunks(ctx context.Context, w http.ResponseWriter, mu *sync.Mutex, text string, chunkSize int, delay time.Duration) error {
	if chunkSize <= 0 {
		chunkSize = 1
	}

	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		if err := ss.WriteSSEData(ctx, w, types.StreamData{Text: string(runes[start:end])}, mu); err != nil {
			return err
		}

		if end < len(runes) && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}
