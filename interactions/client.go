// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
)

const interactionsPath = "/v1/interactions"

// Client talks to the Interactions API. It is safe for concurrent use.
type Client struct {
	tp       transport
	strict   bool
	requests atomic.Int64
}

// New creates a client authenticating with the given API key. The key is
// sent in the x-api-key header on every request.
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		tp:     newHTTPTransport(apiKey, cfg),
		strict: cfg.strict,
	}
}

// newWithTransport creates a client with a custom transport, for testing.
func newWithTransport(tp transport, strict bool) *Client {
	return &Client{tp: tp, strict: strict}
}

// Requests reports how many API calls this client has issued.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, stream bool) (*http.Response, error) {
	c.requests.Add(1)
	return c.tp.do(ctx, method, path, query, body, stream)
}

// Create runs an interaction to completion and returns the final response.
func (c *Client) Create(ctx context.Context, req *InteractionRequest) (*InteractionResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = false

	resp, err := c.do(ctx, http.MethodPost, interactionsPath, nil, &body, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

// CreateStream starts an interaction and returns a stream of incremental
// events. The returned stream must be closed when the caller is done with
// it, whether or not it was fully consumed.
func (c *Client) CreateStream(ctx context.Context, req *InteractionRequest) (*InteractionStream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = true

	resp, err := c.do(ctx, http.MethodPost, interactionsPath, nil, &body, true)
	if err != nil {
		return nil, err
	}

	return c.consumeSSE(ctx, resp.Body), nil
}

// Get fetches the current state of an interaction.
func (c *Client) Get(ctx context.Context, id string, opts ...GetOption) (*InteractionResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: interaction id is required", ErrValidation)
	}
	// GetOptions only influence streaming reads; a snapshot fetch accepts
	// them so call sites can share option lists, and ignores them.

	resp, err := c.do(ctx, http.MethodGet, interactionsPath+"/"+id, nil, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

// GetStream re-attaches to an in-flight interaction and streams events from
// it. Pass [WithLastEventID] with the id of the last event observed before
// a disconnect to skip chunks that were already delivered.
func (c *Client) GetStream(ctx context.Context, id string, opts ...GetOption) (*InteractionStream, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: interaction id is required", ErrValidation)
	}

	cfg := &getConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	query := url.Values{"alt": []string{"sse"}}
	if cfg.lastEventID != "" {
		query.Set("last_event_id", cfg.lastEventID)
	}

	resp, err := c.do(ctx, http.MethodGet, interactionsPath+"/"+id, query, nil, true)
	if err != nil {
		return nil, err
	}

	return c.consumeSSE(ctx, resp.Body), nil
}

// Delete removes a stored interaction.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: interaction id is required", ErrValidation)
	}

	resp, err := c.do(ctx, http.MethodDelete, interactionsPath+"/"+id, nil, nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Cancel requests that a background interaction stop generating. The service
// returns the interaction in its post-cancellation state.
func (c *Client) Cancel(ctx context.Context, id string) (*InteractionResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: interaction id is required", ErrValidation)
	}

	resp, err := c.do(ctx, http.MethodPost, interactionsPath+"/"+id+":cancel", nil, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return c.readResponse(resp)
}

func (c *Client) readResponse(resp *http.Response) (*InteractionResponse, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrTransport, err)
	}
	return decodeResponse(data, c.strict)
}

// consumeSSE turns a server-sent-events body into an [InteractionStream].
// The producer owns the body and closes it when the stream ends, errors,
// or is closed by the consumer.
func (c *Client) consumeSSE(ctx context.Context, body io.ReadCloser) *InteractionStream {
	s := NewStream(ctx, func(ctx context.Context, ch chan<- StreamEvent) error {
		defer body.Close()

		// A blocked read does not observe context cancellation; closing
		// the body is what unblocks it when the consumer walks away.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				body.Close()
			case <-done:
			}
		}()

		scanner := newSSEScanner(body)
		for {
			frame, err := scanner.next()
			if err == io.EOF {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrStreamTruncated
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}

			chunk, ok, err := classifyFrame(ctx, frame, c.strict)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			select {
			case ch <- StreamEvent{Chunk: chunk, EventID: frame.id}:
			case <-ctx.Done():
				return ctx.Err()
			}

			if terminal(chunk) {
				return nil
			}
		}
	})
	return NewInteractionStream(s)
}
