package httpadapter

import (
	"errors"
	"net/http"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/infrastructure/llm/ollama"
)

func mapErrorToHTTPStatus(err error) int {
	var statusErr *ollama.HTTPStatusError

	switch {
	case domain.IsKind(err, domain.ErrValidation),
		domain.IsKind(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrBreakerOpen),
		domain.IsKind(err, domain.ErrUpstreamUnavailable),
		domain.IsKind(err, domain.ErrNotInitialized),
		domain.IsKind(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &statusErr):
		// The model backend answered with an HTTP error; relay its code.
		return statusErr.StatusCode
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrBreakerOpen):
		return "the assistant is temporarily unavailable, please retry in a minute"
	case domain.IsKind(err, domain.ErrUpstreamTimeout):
		return "the request took too long, try a shorter question"
	default:
		return err.Error()
	}
}
