package rag

import (
	"context"
	"strconv"
	"strings"

	"med-assistant/prompts"

	"go.uber.org/zap"
)

// GenerateQueries turns the user's question into several alternative search
// queries by asking the generative model for rephrasings. The model's output
// is split on line breaks; blank lines are dropped. There is no guarantee of
// exactly the configured count. When the call fails or yields nothing usable,
// the original question is returned as the sole query so the pipeline always
// has at least one retrieval query to work with.
func (p *Pipeline) GenerateQueries(ctx context.Context, question string) []string {
	count := p.cfg.ExpansionQueries
	if count <= 0 {
		count = 5
	}
	instruction := strings.ReplaceAll(prompts.QueryExpansion(), "{count}", strconv.Itoa(count))

	raw, err := p.llm.Generate(ctx, instruction, "Original question: "+question, p.cfg.ExpansionTemperature)
	if err != nil {
		p.logger.Warn("Query expansion call failed, falling back to the original question",
			zap.Error(err),
			zap.String("question", question))
		return []string{question}
	}

	var queries []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}

	if len(queries) == 0 {
		p.logger.Warn("Query expansion produced no usable queries, falling back to the original question",
			zap.String("question", question))
		return []string{question}
	}

	p.logger.Debug("Expanded question into retrieval queries",
		zap.Int("count", len(queries)))
	return queries
}
