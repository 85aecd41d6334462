package domain

import (
	"errors"
	"fmt"
)

var (
	// Ingestion failures.
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrValidation      = errors.New("invalid input")
	ErrQuality         = errors.New("content quality too low")

	// Capability failures.
	ErrNotInitialized   = errors.New("service not initialized")
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// LLM-path failures. These are the only errors surfaced to chat callers.
	ErrBreakerOpen         = errors.New("circuit breaker open")
	ErrUpstreamTimeout     = errors.New("upstream call timed out")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrClientGone marks a streaming write that failed because the client
	// disconnected. Never surfaced; the stream just stops.
	ErrClientGone = errors.New("client disconnected")

	ErrSessionNotFound = errors.New("session not found")
)

// WrapError prefixes an error with the failing component and operation
// while keeping sentinel errors reachable through errors.Is.
func WrapError(component, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s: %w", component, operation, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
