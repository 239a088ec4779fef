package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"med-assistant/config"
	"med-assistant/memory"
	"med-assistant/web/types"

	"go.uber.org/zap"
)

type stubPipeline struct {
	fn func(ctx context.Context, question, history string) (string, error)
}

func (s stubPipeline) Answer(ctx context.Context, question, history string) (string, error) {
	return s.fn(ctx, question, history)
}

func newTestChatService(pipeline AnswerPipeline) (*ChatService, *memory.Store) {
	cfg := &config.Config{
		HistoryTurns:     5,
		StreamChunkSize:  8,
		StreamChunkDelay: 0,
		MaxSessionTurns:  20,
	}
	logger := zap.NewNop()
	sessions := memory.NewStore(cfg.MaxSessionTurns)
	return NewChatService(pipeline, sessions, NewStreamService(logger), cfg, logger), sessions
}

func streamRequest(cs *ChatService, req types.ChatRequest) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	cs.StreamChatResponse(context.Background(), rec, req)
	return rec
}

func TestStreamChatResponseEndToEnd(t *testing.T) {
	answer := "For a mild tension headache, **hydration** and rest are first-line measures."
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		return answer, nil
	}}
	cs, sessions := newTestChatService(pipeline)

	rec := streamRequest(cs, types.ChatRequest{Message: "What helps a headache?", SessionID: "s1"})

	events := parseSSEEvents(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("expected streamed events, got none")
	}

	last := events[len(events)-1]
	if !last.Done {
		t.Error("final event must have done set")
	}
	if !strings.Contains(last.Rendered, "<strong>hydration</strong>") {
		t.Errorf("done event rendered HTML %q missing bold markup", last.Rendered)
	}

	var rebuilt strings.Builder
	for _, ev := range events[:len(events)-1] {
		rebuilt.WriteString(ev.Text)
	}
	if rebuilt.String() != answer {
		t.Errorf("streamed text reconstructs to %q, want %q", rebuilt.String(), answer)
	}

	turns := sessions.Turns("s1")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns in session, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "What helps a headache?" {
		t.Errorf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Content != answer {
		t.Errorf("unexpected assistant turn %+v", turns[1])
	}
}

func TestStreamChatResponsePassesHistory(t *testing.T) {
	var gotHistory string
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		gotHistory = history
		return "ok", nil
	}}
	cs, sessions := newTestChatService(pipeline)

	sessions.Append("s1", "user", "I have a fever")
	sessions.Append("s1", "assistant", "How high is it?")

	streamRequest(cs, types.ChatRequest{Message: "39 degrees", SessionID: "s1"})

	if !strings.Contains(gotHistory, "User: I have a fever") {
		t.Errorf("history %q missing prior user turn", gotHistory)
	}
	if !strings.Contains(gotHistory, "Assistant: How high is it?") {
		t.Errorf("history %q missing prior assistant turn", gotHistory)
	}
}

func TestStreamChatResponseDefaultSession(t *testing.T) {
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		return "ok", nil
	}}
	cs, sessions := newTestChatService(pipeline)

	streamRequest(cs, types.ChatRequest{Message: "hello"})

	if turns := sessions.Turns(types.DefaultSessionID); len(turns) != 2 {
		t.Errorf("expected 2 turns under the default session, got %d", len(turns))
	}
}

func TestStreamChatResponsePipelineFailure(t *testing.T) {
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		return "", errors.New("generation backend unavailable")
	}}
	cs, sessions := newTestChatService(pipeline)

	rec := streamRequest(cs, types.ChatRequest{Message: "hello", SessionID: "s1"})

	events := parseSSEEvents(t, rec.Body.String())
	if len(events) != 1 {
		t.Fatalf("expected a single error event, got %d", len(events))
	}
	if !strings.HasPrefix(events[0].Text, "Error: ") {
		t.Errorf("error event text %q missing prefix", events[0].Text)
	}
	if events[0].Done {
		t.Error("error event must not be a done event")
	}

	if turns := sessions.Turns("s1"); len(turns) != 0 {
		t.Errorf("failed exchange must not be recorded, got %d turns", len(turns))
	}
}

func TestStreamChatResponseMemoryCommittedBeforeStreaming(t *testing.T) {
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		return "full answer", nil
	}}
	cs, sessions := newTestChatService(pipeline)

	// A writer without Flusher that fails mid-stream simulates a dropped client.
	w := &failingWriter{failAfter: 1}
	cs.StreamChatResponse(context.Background(), w, types.ChatRequest{Message: "q", SessionID: "s1"})

	if turns := sessions.Turns("s1"); len(turns) != 2 {
		t.Errorf("expected full exchange in memory despite stream failure, got %d turns", len(turns))
	}
}

func TestClearSession(t *testing.T) {
	pipeline := stubPipeline{fn: func(ctx context.Context, question, history string) (string, error) {
		return "ok", nil
	}}
	cs, sessions := newTestChatService(pipeline)

	sessions.Append("s1", "user", "hi")
	if !cs.ClearSession("s1") {
		t.Error("expected ClearSession to report an existing session")
	}
	if cs.ClearSession("s1") {
		t.Error("expected ClearSession to report a missing session on repeat")
	}
}

// failingWriter errors on every write after the first failAfter writes.
type failingWriter struct {
	writes    int
	failAfter int
}

func (f *failingWriter) Header() http.Header { return http.Header{} }

func (f *failingWriter) WriteHeader(int) {}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	if f.writes > f.failAfter {
		return 0, errors.New("client disconnected")
	}
	return len(p), nil
}
