// Copyright (c) Microsoft. All rights reserved.

package toolloop

import (
	"context"
	"sync"

	"github.com/parallaxis/interactions-go/interactions"
)

// Transcript records each round's response for callers that want a local
// audit trail of a loop run. The service remains the source of truth.
type Transcript interface {
	// Add appends one response to the transcript.
	Add(ctx context.Context, resp *interactions.InteractionResponse) error

	// List returns all recorded responses in order.
	List(ctx context.Context) ([]*interactions.InteractionResponse, error)
}

// MemoryTranscript is an in-memory [Transcript], safe for concurrent use.
type MemoryTranscript struct {
	mu        sync.Mutex
	responses []*interactions.InteractionResponse
}

// NewMemoryTranscript creates an empty [MemoryTranscript].
func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{}
}

func (t *MemoryTranscript) Add(_ context.Context, resp *interactions.InteractionResponse) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses = append(t.responses, resp)
	return nil
}

func (t *MemoryTranscript) List(_ context.Context) ([]*interactions.InteractionResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]*interactions.InteractionResponse, len(t.responses))
	copy(cp, t.responses)
	return cp, nil
}
