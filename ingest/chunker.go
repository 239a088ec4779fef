package ingest

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// SentenceSplitter segments text into sentences for chunk assembly.
type SentenceSplitter interface {
	Split(text string) []string
}

// ProseSentenceSplitter uses NLP-based segmentation, falling back to the
// regex splitter when document construction fails.
type ProseSentenceSplitter struct {
	fallback RegexSentenceSplitter
	logger   *zap.Logger
}

func NewProseSentenceSplitter(logger *zap.Logger) ProseSentenceSplitter {
	return ProseSentenceSplitter{fallback: NewRegexSentenceSplitter(), logger: logger}
}

func (s ProseSentenceSplitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	doc, err := prose.NewDocument(trimmed, prose.WithExtraction(false), prose.WithTagging(false))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Sentence segmentation failed, using regex splitter", zap.Error(err))
		}
		return s.fallback.Split(trimmed)
	}

	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return s.fallback.Split(trimmed)
	}

	out := make([]string, 0, len(sentences))
	for _, sent := range sentences {
		if t := strings.TrimSpace(sent.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// RegexSentenceSplitter is a dependency-free splitter on .!? boundaries.
type RegexSentenceSplitter struct{}

func NewRegexSentenceSplitter() RegexSentenceSplitter {
	return RegexSentenceSplitter{}
}

func (RegexSentenceSplitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	var sentences []string
	var builder strings.Builder

	isBoundary := func(r rune) bool {
		switch r {
		case '.', '!', '?':
			return true
		default:
			return false
		}
	}

	flush := func() {
		if builder.Len() == 0 {
			return
		}
		sentence := strings.TrimSpace(builder.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		builder.Reset()
	}

	for idx, r := range runes {
		builder.WriteRune(r)
		if !isBoundary(r) {
			continue
		}
		// Look ahead to determine if this is end of sentence
		next := idx + 1
		for next < len(runes) && (runes[next] == ' ' || runes[next] == '\n' || runes[next] == '\t') {
			next++
		}
		if next >= len(runes) || isBoundary(runes[next]) {
			continue
		}
		flush()
	}

	flush()

	if len(sentences) == 0 {
		return []string{trimmed}
	}
	return sentences
}

// ChunkText groups sentences into passages around targetWords, never
// exceeding maxWords except when a single sentence is itself longer. Chunks
// are what gets embedded and retrieved, so they should read as coherent
// passages rather than arbitrary windows.
func ChunkText(splitter SentenceSplitter, text string, targetWords, maxWords int) []string {
	if targetWords <= 0 {
		targetWords = 150
	}
	if maxWords < targetWords {
		maxWords = targetWords * 2
	}

	sentences := splitter.Split(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))
		current = nil
		currentWords = 0
	}

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))
		if words == 0 {
			continue
		}
		if currentWords > 0 && currentWords+words > maxWords {
			flush()
		}
		current = append(current, sentence)
		currentWords += words
		if currentWords >= targetWords {
			flush()
		}
	}
	flush()

	return chunks
}
