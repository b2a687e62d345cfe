// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"context"
	"sync"
)

// Stream provides a pull-based iterator over values produced asynchronously.
// It wraps a channel internally but exposes a cleaner API with error
// propagation and cleanup guarantees.
//
// Callers must call Close when done, or use a context with cancellation;
// closing cancels the producer so no background work outlives the consumer.
type Stream[T any] struct {
	ch        <-chan T
	errCh     <-chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	err       error
}

// NewStream creates a Stream by running producer in a goroutine. The
// producer sends values to the channel and returns any error; the channel is
// closed automatically when the producer returns.
func NewStream[T any](ctx context.Context, producer func(ctx context.Context, ch chan<- T) error) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan T, 1) // small buffer to reduce goroutine blocking
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		if err := producer(ctx, ch); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	return &Stream[T]{
		ch:     ch,
		errCh:  errCh,
		cancel: cancel,
	}
}

// Next returns the next value from the stream.
// ok is false when the stream is exhausted. err is non-nil on failure.
func (s *Stream[T]) Next(ctx context.Context) (val T, ok bool, err error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case v, open := <-s.ch:
		if !open {
			// Channel closed, check for producer error.
			select {
			case e := <-s.errCh:
				s.err = e
			default:
			}
			var zero T
			return zero, false, s.err
		}
		return v, true, nil
	}
}

// Collect drains the entire stream and returns all values.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, val)
	}
}

// Close cancels the producer and releases resources.
// Safe to call multiple times.
func (s *Stream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		// Drain remaining items to unblock the producer.
		for range s.ch {
		}
		select {
		case e := <-s.errCh:
			if s.err == nil {
				s.err = e
			}
		default:
		}
	})
	return nil
}

// InteractionStream is a lazy, non-restartable sequence of [StreamEvent]
// values from one streamed interaction. Closing it closes the underlying
// HTTP connection.
type InteractionStream struct {
	stream *Stream[StreamEvent]
	events []StreamEvent
}

// NewInteractionStream wraps a raw event stream. Exposed so the
// function-calling loop and tests can source events from fakes.
func NewInteractionStream(stream *Stream[StreamEvent]) *InteractionStream {
	return &InteractionStream{stream: stream}
}

// Next returns the next stream event in arrival order.
func (s *InteractionStream) Next(ctx context.Context) (StreamEvent, bool, error) {
	ev, ok, err := s.stream.Next(ctx)
	if ok {
		s.events = append(s.events, ev)
	}
	return ev, ok, err
}

// Final consumes the remaining events and assembles the terminal
// [InteractionResponse]. After calling this, the stream is exhausted.
func (s *InteractionStream) Final(ctx context.Context) (*InteractionResponse, error) {
	for {
		ev, ok, err := s.stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		s.events = append(s.events, ev)
	}
	return ResponseFromEvents(s.events)
}

// Close releases the underlying stream resources.
func (s *InteractionStream) Close() error {
	return s.stream.Close()
}
