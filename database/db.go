package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

// EnsureSchema creates the knowledge base tables if they do not already exist.
// dimension is the embedding vector width and must match the embedding model.
func (s *PostgresStore) EnsureSchema(ctx context.Context, dimension int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
            id UUID PRIMARY KEY,
            content TEXT NOT NULL,
            tags TEXT[] DEFAULT '{}'::TEXT[],
            source TEXT DEFAULT '',
            content_hash TEXT UNIQUE NOT NULL,
            embedding vector(%d),
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
