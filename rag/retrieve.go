package rag

import (
	"context"
	"fmt"

	apperrors "med-assistant/errors"

	"go.uber.org/zap"
)

// Retrieve embeds a single query and returns the nearest documents from the
// knowledge base, best match first. Rows without text are skipped, so the
// result may be shorter than limit. An empty result is not an error; a
// failing embedding or search call is, wrapped as a retrieval failure for the
// caller to isolate.
func (p *Pipeline) Retrieve(ctx context.Context, query string, limit int) ([]Document, error) {
	vector, err := p.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", apperrors.ErrRetrievalFailed, err)
	}

	results, err := p.searcher.SearchDocuments(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", apperrors.ErrRetrievalFailed, err)
	}

	docs := make([]Document, 0, len(results))
	for _, res := range results {
		if res.Content == "" {
			p.logger.Debug("Skipping search hit without text",
				zap.String("document_id", res.ID.String()))
			continue
		}
		docs = append(docs, Document{Content: res.Content, Source: res.Source})
	}
	return docs, nil
}

// embedQuery embeds with a small LRU cache in front of the embedding
// collaborator. Embeddings are deterministic per text, so caching is safe and
// saves a remote call when query variants repeat across requests.
func (p *Pipeline) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := p.embedCache.Get(query); ok {
		return cached.([]float32), nil
	}

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	p.embedCache.Add(query, vector)
	return vector, nil
}
