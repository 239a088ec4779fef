package rag

import (
	"strings"

	"med-assistant/prompts"
)

// noContextPlaceholder stands in for the retrieved context when fusion
// produced nothing; the template's disclaimers still apply.
const noContextPlaceholder = "No relevant medical context found."

// BuildPrompt renders the grounded generation prompt from the session
// history, the fused context, and the question. Passages are joined by blank
// lines in fusion order. Pure function; no side effects.
func BuildPrompt(history string, docs []Document, question string) string {
	var contextText string
	if len(docs) == 0 {
		contextText = noContextPlaceholder
	} else {
		passages := make([]string, 0, len(docs))
		for _, doc := range docs {
			passages = append(passages, doc.Content)
		}
		contextText = strings.Join(passages, "\n\n")
	}

	replacer := strings.NewReplacer(
		"{conversation_history}", history,
		"{context}", contextText,
		"{question}", question,
	)
	return replacer.Replace(prompts.MedicalRAG())
}
