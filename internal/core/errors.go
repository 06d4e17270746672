package core

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these to HTTP statuses with errors.Is; the
// wrapped cause is logged server-side and never returned to the client.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrCorruptDocument      = errors.New("corrupt document")
	ErrIngestionFailed      = errors.New("ingestion failed")
	ErrIndexUnavailable     = errors.New("vector index unavailable")
	ErrUpstreamTimeout      = errors.New("upstream call timed out")
	ErrAgentError           = errors.New("agent error")
)

// classify wraps an upstream failure under the given taxonomy error, except
// that deadline expiry always surfaces as ErrUpstreamTimeout so callers can
// tell a slow provider from a broken one.
func classify(kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrUpstreamTimeout
	}
	return fmt.Errorf("%w: %w", kind, err)
}
