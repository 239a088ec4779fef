// Package rag implements the retrieval-fusion pipeline: one question is
// expanded into several search queries, each query retrieves a ranked list of
// passages from the vector store, the lists are merged with Reciprocal Rank
// Fusion, and the fused context is fed to the generative model together with
// the session history.
package rag

import (
	"context"
	"fmt"
	"sync"

	"med-assistant/config"
	"med-assistant/database"
	apperrors "med-assistant/errors"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Document is an opaque retrieved passage. Identity for fusion purposes is
// derived from Content alone; see ContentKey.
type Document struct {
	Content string
	Source  string
}

// Embedder produces an embedding vector for a piece of text. Embeddings are
// deterministic for identical text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentSearcher performs nearest-neighbour search over the knowledge base.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, vector []float32, limit int) ([]database.SearchResult, error)
}

// Generator is the generative model collaborator: single-shot, non-streaming.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string, temperature float64) (string, error)
}

type Pipeline struct {
	cfg        *config.Config
	llm        Generator
	embedder   Embedder
	searcher   DocumentSearcher
	embedCache *lru.Cache
	logger     *zap.Logger
}

func New(cfg *config.Config, llm Generator, embedder Embedder, searcher DocumentSearcher, logger *zap.Logger) (*Pipeline, error) {
	cacheSize := cfg.EmbeddingCacheSize
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &Pipeline{
		cfg:        cfg,
		llm:        llm,
		embedder:   embedder,
		searcher:   searcher,
		embedCache: cache,
		logger:     logger,
	}, nil
}

// Answer runs the full pipeline for one question. Retrieval across the
// expanded queries is parallel and independent; fusion waits for all of them.
// Per-query retrieval failures are isolated; generation failures propagate.
func (p *Pipeline) Answer(ctx context.Context, question, history string) (string, error) {
	queries := p.GenerateQueries(ctx, question)

	lists := make([][]Document, len(queries))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			docs, err := p.Retrieve(ctx, query, p.cfg.RetrievalLimit)
			if err != nil {
				// One bad query must not abort the request
				p.logger.Warn("Retrieval failed for expanded query, continuing without it",
					zap.Error(err),
					zap.String("query", query))
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			lists[i] = docs
		}(i, query)
	}
	wg.Wait()

	if failures == len(queries) {
		p.logger.Warn("All retrieval queries failed, answering without context",
			zap.Int("queries", len(queries)))
	}

	fused := FuseRankedLists(lists, p.cfg.FusionK)
	p.logger.Debug("Fused retrieval results",
		zap.Int("queries", len(queries)),
		zap.Int("fused_documents", len(fused)))

	prompt := BuildPrompt(history, fused, question)

	answer, err := p.llm.Generate(ctx, "", prompt, p.cfg.GenerationTemperature)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrGenerationFailed, err)
	}
	return answer, nil
}
