// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is. Every error returned by this
// module wraps exactly one of these kinds (or is an [*APIError]).
var (
	// ErrTransport indicates a network or HTTP-layer failure before a
	// well-formed service response was received.
	ErrTransport = errors.New("transport error")

	// ErrTimeout indicates a per-request timeout elapsed. The client never
	// retries on its own; see [Retryable] for the advisory classification.
	ErrTimeout = errors.New("request timed out")

	// ErrDecode indicates malformed JSON at the top level of a response or
	// frame. Decode failures are always fatal, never degraded.
	ErrDecode = errors.New("decode error")

	// ErrValidation indicates a caller precondition was violated before any
	// request was sent.
	ErrValidation = errors.New("validation error")

	// ErrProtocol indicates a well-formed but structurally incomplete
	// lifecycle frame. Individual frames with this defect are dropped and
	// the stream continues; ErrProtocol surfaces only for stream-level
	// violations.
	ErrProtocol = errors.New("protocol violation")

	// ErrStreamTruncated is returned when a stream ends without a terminal
	// complete or error event.
	ErrStreamTruncated = fmt.Errorf("%w: stream ended without a terminal event", ErrProtocol)

	// ErrLoopLimit is returned by the function-calling loop when the
	// configured maximum number of rounds is reached.
	ErrLoopLimit = errors.New("function call round limit reached")
)

// APIError is a service rejection: the request reached the service and was
// answered with a non-2xx status. RequestID, when present, correlates the
// failure with server-side logs.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}
