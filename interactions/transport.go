// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.parallaxis.ai"

// tokenScope is requested when a token credential is configured instead of
// an API key.
const tokenScope = "https://api.parallaxis.ai/.default"

// transport is an unexported interface for HTTP communication.
// The default implementation uses net/http; tests inject a mock.
type transport interface {
	do(ctx context.Context, method, path string, query url.Values, body any, stream bool) (*http.Response, error)
}

// httpTransport is the default transport using net/http.
type httpTransport struct {
	client  *http.Client
	baseURL string
	apiKey  string
	headers map[string]string
	cred    azcore.TokenCredential
	timeout time.Duration
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:  cfg.httpClient,
		baseURL: cfg.baseURL,
		apiKey:  apiKey,
		headers: cfg.headers,
		cred:    cfg.cred,
		timeout: cfg.timeout,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.baseURL == "" {
		t.baseURL = defaultBaseURL
	}
	return t
}

func (t *httpTransport) do(ctx context.Context, method, path string, query url.Values, body any, stream bool) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	// Per-request timeouts apply to buffered calls only; a streaming body
	// lives as long as the consumer, so a deadline would sever it mid-read.
	var cancel context.CancelFunc
	if t.timeout > 0 && !stream {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("X-Client-Request-Id", uuid.NewString())

	// The key travels in a header, never in the URL, so it cannot leak into
	// access logs.
	if t.cred != nil {
		slog.DebugContext(ctx, "acquiring bearer token for interactions service")
		token, err := t.cred.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{tokenScope},
		})
		if err != nil {
			if cancel != nil {
				cancel()
			}
			return nil, fmt.Errorf("%w: get token: %v", ErrTransport, err)
		}
		req.Header.Set("Authorization", "Bearer "+token.Token)
	} else {
		req.Header.Set("x-api-key", t.apiKey)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, classifyTransportError(ctx, err)
	}
	if cancel != nil {
		// Keep the deadline armed until the caller finishes the body.
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}

	return resp, nil
}

// classifyTransportError separates per-request timeouts from other
// network-layer failures.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// parseAPIError reads an error response body and returns a typed [*APIError].
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var wire struct {
		Error wireError `json:"error"`
	}
	_ = json.Unmarshal(body, &wire)

	msg := wire.Error.Message
	if msg == "" {
		msg = string(body)
	}

	return &APIError{
		Status:    resp.StatusCode,
		Code:      wire.Error.Code,
		Message:   msg,
		RequestID: resp.Header.Get("X-Request-Id"),
	}
}

// cancelOnClose releases a request deadline when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}
