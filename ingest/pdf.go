package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDFText extracts all text content from a PDF file with page markers
// so chunk sources stay traceable. Pages that fail to decode are skipped.
func (s *Service) extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var fullText strings.Builder
	totalPages := r.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			s.logger.Warn("Skipping null page",
				zap.String("path", path),
				zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		fullText.WriteString(fmt.Sprintf("--- Page %d ---\n", pageNum))
		fullText.WriteString(text)
		fullText.WriteString("\n\n")
	}

	s.logger.Debug("PDF text extraction completed",
		zap.String("path", path),
		zap.Int("pages", totalPages),
		zap.Int("characters", fullText.Len()))

	return fullText.String(), nil
}
