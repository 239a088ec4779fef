package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrExpansionFailed indicates the query expansion call produced no usable queries
	ErrExpansionFailed = errors.New("query expansion failed")

	// ErrRetrievalFailed indicates embedding or vector search failed for a query
	ErrRetrievalFailed = errors.New("document retrieval failed")

	// ErrGenerationFailed indicates the final answer generation call failed
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrSessionNotFound indicates a session id has no stored history
	ErrSessionNotFound = errors.New("session not found")

	// ErrLLMCommunication indicates LLM communication failed
	ErrLLMCommunication = errors.New("llm communication failed")
)

// WrapError wraps an error with a context message
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with a formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsRetrievalFailure checks if error is a retrieval failure
func IsRetrievalFailure(err error) bool {
	return errors.Is(err, ErrRetrievalFailed)
}

// IsGenerationFailure checks if error is a generation failure
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationFailed)
}

// IsSessionNotFound checks if error is a session not found error
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
