// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"context"
	"errors"
	"net/http"
)

// Retryable reports whether err is worth retrying. Transport failures,
// timeouts, HTTP 429 and HTTP 5xx are transient. Every other kind (other
// 4xx rejections, decode errors, validation errors, protocol violations and
// loop limits) is permanent. The classification is advisory only: backoff
// and retry scheduling are the caller's responsibility.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	// Caller-initiated cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusTooManyRequests:
			return true
		case apiErr.Status >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, ErrTransport) {
		return true
	}

	// ErrDecode, ErrValidation, ErrProtocol, ErrLoopLimit and anything
	// unclassified.
	return false
}
