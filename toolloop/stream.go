// Copyright (c) Microsoft. All rights reserved.

package toolloop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parallaxis/interactions-go/interactions"
)

// RunEvent is a sealed interface over everything [Runner.RunStream] can
// surface: wire stream events pass through as [*StreamUpdate], and the two
// synthetic notices bracket each round's tool execution.
type RunEvent interface {
	sealedRunEvent()
}

type runEventBase struct{}

func (runEventBase) sealedRunEvent() {}

// StreamUpdate forwards one wire event from the current round's stream.
type StreamUpdate struct {
	runEventBase
	Event interactions.StreamEvent
}

// ToolsExecuting is emitted after a round's terminal event, just before the
// pending calls are invoked. It is synthesized locally, not wire data.
type ToolsExecuting struct {
	runEventBase
	Calls []FunctionCallRecord
}

// ToolsCompleted is emitted once every call in the round has finished,
// carrying per-call results and timing in original call order.
type ToolsCompleted struct {
	runEventBase
	Results []ToolExecutionResult
}

// RunStream is the event sequence of a streaming loop run. Closing it stops
// the loop and closes the active connection.
type RunStream struct {
	stream *interactions.Stream[RunEvent]
}

// Next returns the next run event. ok is false when the loop has finished.
func (s *RunStream) Next(ctx context.Context) (RunEvent, bool, error) {
	return s.stream.Next(ctx)
}

// Close stops the loop and releases its resources.
func (s *RunStream) Close() error {
	return s.stream.Close()
}

// RunStream executes the loop in streaming mode. Each round's wire events
// are forwarded as they arrive; pending function calls are only acted on
// once the round's terminal event closes it.
func (r *Runner) RunStream(ctx context.Context, req *interactions.InteractionRequest) *RunStream {
	req = r.prepare(req)

	s := interactions.NewStream(ctx, func(ctx context.Context, ch chan<- RunEvent) error {
		emit := func(ev RunEvent) error {
			select {
			case ch <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for round := 0; round < r.maxRounds; round++ {
			resp, err := r.streamRound(ctx, req, emit)
			if err != nil {
				return err
			}
			r.record(ctx, resp)

			calls, err := extractCalls(resp)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				return nil
			}
			slog.DebugContext(ctx, "executing function calls",
				"interaction_id", resp.ID, "round", round, "calls", len(calls))

			if err := emit(&ToolsExecuting{Calls: calls}); err != nil {
				return err
			}
			results := r.executeCalls(ctx, calls)
			if err := emit(&ToolsCompleted{Results: results}); err != nil {
				return err
			}

			req = r.followUp(req, resp.ID, results)
		}

		return fmt.Errorf("%w: still calling tools after %d rounds", interactions.ErrLoopLimit, r.maxRounds)
	})

	return &RunStream{stream: s}
}

// streamRound consumes one round's stream to its terminal event, forwarding
// every event, and assembles the round's response.
func (r *Runner) streamRound(ctx context.Context, req *interactions.InteractionRequest, emit func(RunEvent) error) (*interactions.InteractionResponse, error) {
	stream, err := r.client.CreateStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var events []interactions.StreamEvent
	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		events = append(events, ev)
		if err := emit(&StreamUpdate{Event: ev}); err != nil {
			return nil, err
		}
	}

	return interactions.ResponseFromEvents(events)
}
