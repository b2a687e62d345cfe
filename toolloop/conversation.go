// Copyright (c) Microsoft. All rights reserved.

package toolloop

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/parallaxis/interactions-go/interactions"
)

// Conversation chains multi-turn interactions: it remembers the latest
// interaction id and stamps it onto each next request as the previous
// interaction, so callers need no bookkeeping of their own. History itself
// lives server-side.
//
// Safe for concurrent use, though turns within one conversation are
// naturally sequential.
type Conversation struct {
	mu     sync.Mutex
	id     string
	lastID string
	runner *Runner
}

// NewConversation creates a conversation bound to a runner.
func NewConversation(runner *Runner) *Conversation {
	return &Conversation{
		id:     uuid.NewString(),
		runner: runner,
	}
}

// ID returns the conversation's local identifier. It never travels on the
// wire; correlation with the service happens through interaction ids.
func (c *Conversation) ID() string { return c.id }

// LastInteractionID returns the id of the most recent completed turn, or
// empty before the first turn.
func (c *Conversation) LastInteractionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

// Turn runs one full tool-loop turn in the conversation. The request is
// chained to the previous turn; on success the chain advances.
func (c *Conversation) Turn(ctx context.Context, req *interactions.InteractionRequest) (*interactions.InteractionResponse, error) {
	cp := *req

	c.mu.Lock()
	if cp.PreviousInteractionID == "" {
		cp.PreviousInteractionID = c.lastID
	}
	c.mu.Unlock()

	resp, err := c.runner.Run(ctx, &cp)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if resp.ID != "" {
		c.lastID = resp.ID
	}
	c.mu.Unlock()

	return resp, nil
}
