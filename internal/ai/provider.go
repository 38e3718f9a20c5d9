package ai

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable wraps every failure of the completion service:
// transport errors, non-2xx responses, timeouts and cancellations.
var ErrUpstreamUnavailable = errors.New("completion service unavailable")

// Provider sends a request to a completion service and returns the full
// reply text. When onDelta is non-nil the reply is streamed and onDelta is
// called with each fragment in arrival order; the return value is still the
// concatenation. An empty reply is not an error. Providers do not retry.
type Provider interface {
	Complete(ctx context.Context, req Request, onDelta func(string)) (string, error)
}
