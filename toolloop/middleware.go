// Copyright (c) Microsoft. All rights reserved.

package toolloop

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// FunctionHandler is the function signature for invoking a tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps a [FunctionHandler] to add cross-cutting behavior.
// Middleware should call next to continue the chain, or return early to
// short-circuit.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chainFunctionMiddleware applies middleware in order (first in list =
// outermost wrapper).
func chainFunctionMiddleware(handler FunctionHandler, mws ...FunctionMiddleware) FunctionHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// LoggingMiddleware returns a [FunctionMiddleware] that logs every tool
// invocation with its duration and outcome. A nil logger uses the default.
func LoggingMiddleware(logger *slog.Logger) FunctionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			logger.DebugContext(ctx, "invoking tool", "tool", tool.Name())
			result, err := next(ctx, tool, args)
			if err != nil {
				logger.WarnContext(ctx, "tool invocation failed",
					"tool", tool.Name(),
					"duration", time.Since(start),
					"error", err,
				)
				return result, err
			}
			logger.DebugContext(ctx, "tool invocation complete",
				"tool", tool.Name(),
				"duration", time.Since(start),
			)
			return result, nil
		}
	}
}
