package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"med-assistant/config"

	"go.uber.org/zap"
)

// ErrContextWindowExceeded is returned when the model reports the prompt
// exceeds the available context size.
var ErrContextWindowExceeded = errors.New("context window exceeded")

// Message is a single chat message in the OpenAI-compatible wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"` // Per-request temperature override
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Embedding request/response mirror llama.cpp's expected schema
type embeddingRequest struct {
	Content string `json:"content"`
}

type embeddingResponse []struct {
	Embedding [][]float32 `json:"embedding"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	// Use a client with the configured timeout; callers cancel long requests
	// through their context.
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// Generate performs a single non-streaming chat completion call.
// systemInstruction is optional; pass "" to send the prompt alone.
func (c *Client) Generate(ctx context.Context, systemInstruction, prompt string, temperature float64) (string, error) {
	messages := make([]Message, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, Message{Role: "system", Content: systemInstruction})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:       c.cfg.GenerativeModelName,
		Messages:    messages,
		Stream:      false,
		Temperature: &temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(c.cfg.LLMHost, "/"))

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return "", fmt.Errorf("create chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
		} else if resp.StatusCode == http.StatusServiceUnavailable {
			// Model loading; retry with backoff
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.backoffSleep(attempt)
			continue
		} else {
			break
		}
	}
	if resp == nil {
		return "", fmt.Errorf("no response from LLM server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(bodyBytes), "exceeds the available context size") {
			return "", ErrContextWindowExceeded
		}
		return "", fmt.Errorf("llm server status %s: %s", resp.Status, string(bodyBytes))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no response choices from llm server")
	}
	return cr.Choices[0].Message.Content, nil
}

// Embed generates an embedding vector for the provided text using the
// llama.cpp-compatible embeddings endpoint.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{Content: text}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(c.cfg.EmbeddingLLMHost, "/"))
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if r.StatusCode == http.StatusServiceUnavailable {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			c.logger.Warn("Embedding model loading, retrying")
			c.backoffSleep(attempt)
			continue
		}

		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from embedding server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server status %s: %s", resp.Status, string(bodyBytes))
	}

	var er embeddingResponse
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(er) == 0 || len(er[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return er[0].Embedding[0], nil
}

func (c *Client) backoffSleep(attempt int) {
	// Exponential backoff with a little jitter
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second // config normalization should prevent this
	}
	d := base * time.Duration(1<<attempt)
	jitter := time.Duration(float64(d) * 0.1)
	time.Sleep(d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1)))
}
