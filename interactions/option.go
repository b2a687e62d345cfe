// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	timeout    time.Duration
	strict     bool
	cred       azcore.TokenCredential
}

// Option configures a [Client].
type Option func(*clientConfig)

// WithBaseURL overrides the service endpoint, e.g. for a regional deployment
// or a local proxy.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) {
		if c.headers == nil {
			c.headers = map[string]string{}
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithRequestTimeout bounds each buffered request. Streaming requests are
// exempt: the connection stays open for as long as the stream is consumed.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithStrictDecoding makes the client reject responses containing content
// items it does not recognize, instead of preserving them as [*UnknownItem].
// Use it in tests and tooling that must notice schema drift immediately.
func WithStrictDecoding() Option {
	return func(c *clientConfig) {
		c.strict = true
	}
}

// WithTokenCredential authenticates with an Azure token credential instead
// of an API key. The positional API key passed to [New] is ignored.
func WithTokenCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) {
		c.cred = cred
	}
}

// GetOption configures [Client.Get] and [Client.GetStream].
type GetOption func(*getConfig)

type getConfig struct {
	lastEventID string
}

// WithLastEventID resumes a reconnected stream after the given event id,
// so already-delivered chunks are not replayed. It only affects
// [Client.GetStream]; [Client.Get] returns a snapshot and ignores it.
func WithLastEventID(id string) GetOption {
	return func(c *getConfig) {
		c.lastEventID = id
	}
}
