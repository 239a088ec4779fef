// Package ingest populates the vector knowledge base from a directory of
// source documents: plain text, markdown, or PDF. Each file is chunked into
// sentence-aligned passages, embedded, and stored with a content hash so
// re-running ingestion is idempotent.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"med-assistant/config"
	"med-assistant/database"
	"med-assistant/rag"

	"go.uber.org/zap"
)

type Service struct {
	cfg      *config.Config
	store    *database.PostgresStore
	embedder rag.Embedder
	splitter SentenceSplitter
	logger   *zap.Logger
}

func NewService(cfg *config.Config, store *database.PostgresStore, embedder rag.Embedder, logger *zap.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		splitter: NewProseSentenceSplitter(logger),
		logger:   logger,
	}
}

// IngestDir walks dir and ingests every supported file. A failing file is
// logged and skipped; the walk itself failing is an error.
func (s *Service) IngestDir(ctx context.Context, dir string) error {
	var files, chunks int

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".txt", ".md", ".pdf":
		default:
			return nil
		}

		n, err := s.ingestFile(ctx, path, ext)
		if err != nil {
			s.logger.Error("Failed to ingest file, skipping",
				zap.Error(err),
				zap.String("path", path))
			return nil
		}
		files++
		chunks += n
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk ingest directory: %w", err)
	}

	s.logger.Info("Ingestion completed",
		zap.String("dir", dir),
		zap.Int("files", files),
		zap.Int("chunks", chunks))
	return nil
}

func (s *Service) ingestFile(ctx context.Context, path, ext string) (int, error) {
	var text string
	var err error

	if ext == ".pdf" {
		text, err = s.extractPDFText(path)
	} else {
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	}
	if err != nil {
		return 0, err
	}

	passages := ChunkText(s.splitter, text, s.cfg.IngestTargetWords, s.cfg.IngestMaxWords)
	if len(passages) == 0 {
		s.logger.Warn("File produced no passages", zap.String("path", path))
		return 0, nil
	}

	source := filepath.Base(path)
	tags := fileTags(path, ext)

	for _, passage := range passages {
		vector, err := s.embedder.Embed(ctx, passage)
		if err != nil {
			return 0, fmt.Errorf("embed passage: %w", err)
		}

		hash := contentHash(passage)
		if err := s.store.UpsertDocument(ctx, passage, tags, source, hash, vector); err != nil {
			return 0, err
		}
	}

	s.logger.Debug("Ingested file",
		zap.String("path", path),
		zap.Int("passages", len(passages)))
	return len(passages), nil
}

// fileTags derives coarse tags from the file location: the format plus the
// parent directory name, which corpora typically use for topic grouping.
func fileTags(path, ext string) []string {
	tags := []string{strings.TrimPrefix(ext, ".")}
	if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
		tags = append(tags, parent)
	}
	return tags
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
