package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// SearchResult is a single nearest-neighbour hit from the documents table.
// Content may be empty when a row was ingested without text; callers are
// expected to skip those.
type SearchResult struct {
	ID       uuid.UUID
	Content  string
	Tags     []string
	Source   string
	Distance float64
}

// UpsertDocument stores a document chunk with its embedding, deduplicating on
// the content hash. Re-ingesting the same passage is a no-op.
func (s *PostgresStore) UpsertDocument(ctx context.Context, content string, tags []string, source string, contentHash string, embedding []float32) error {
	const query = `
        INSERT INTO documents (id, content, tags, source, content_hash, embedding, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (content_hash) DO NOTHING
    `
	if tags == nil {
		tags = []string{}
	}

	if _, err := s.DB.ExecContext(ctx, query, uuid.New(), content, pq.Array(tags), source, contentHash, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// SearchDocuments returns the nearest limit documents to the query vector,
// best match first, ordered by cosine distance.
func (s *PostgresStore) SearchDocuments(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	const query = `
        SELECT id, content, tags, source, embedding <=> $1 AS distance
        FROM documents
        ORDER BY embedding <=> $1
        LIMIT $2
    `

	rows, err := s.DB.QueryContext(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		var tags pq.StringArray
		if err := rows.Scan(&res.ID, &res.Content, &tags, &res.Source, &res.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		res.Tags = tags
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}
	return results, nil
}

// CountDocuments reports the size of the knowledge base.
func (s *PostgresStore) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
