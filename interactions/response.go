// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an interaction.
type Status string

const (
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusRequiresAction Status = "requires_action"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"

	// StatusUnknown stands in for any lifecycle state this client does not
	// recognize, so new server-side states do not break decoding.
	StatusUnknown Status = "unknown"
)

// UnmarshalJSON normalizes unrecognized states to [StatusUnknown].
func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch Status(v) {
	case StatusInProgress, StatusCompleted, StatusRequiresAction, StatusFailed, StatusCancelled:
		*s = Status(v)
	default:
		*s = StatusUnknown
	}
	return nil
}

// Usage holds token consumption counters for one interaction.
type Usage struct {
	InputTokens   int `json:"input_tokens,omitempty"`
	OutputTokens  int `json:"output_tokens,omitempty"`
	ThoughtTokens int `json:"thought_tokens,omitempty"`
	TotalTokens   int `json:"total_tokens,omitempty"`
}

// InteractionResponse is the service's view of one interaction: its id,
// lifecycle status, ordered outputs and usage counters.
type InteractionResponse struct {
	ID      string   `json:"id"`
	Status  Status   `json:"status"`
	Model   string   `json:"model,omitempty"`
	Outputs Contents `json:"outputs,omitempty"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Text returns the concatenated text of all [TextItem] outputs.
func (r *InteractionResponse) Text() string {
	var b strings.Builder
	for _, c := range r.Outputs {
		if tc, ok := c.(*TextItem); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns the pending function calls in output order.
func (r *InteractionResponse) FunctionCalls() []*FunctionCallItem {
	var calls []*FunctionCallItem
	for _, c := range r.Outputs {
		if fc, ok := c.(*FunctionCallItem); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// decodeResponse parses an interaction object from the wire. In strict mode
// any output that degraded to [UnknownItem] becomes a hard [ErrDecode].
func decodeResponse(data []byte, strict bool) (*InteractionResponse, error) {
	var resp InteractionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: interaction: %v", ErrDecode, err)
	}
	if strict {
		for _, c := range resp.Outputs {
			if u, ok := c.(*UnknownItem); ok {
				return nil, fmt.Errorf("%w: unrecognized content item %q in outputs", ErrDecode, u.TypeName)
			}
		}
	}
	return &resp, nil
}

// ResponseFromEvents assembles the final [InteractionResponse] from a fully
// consumed event sequence. The complete event's snapshot wins wholesale when
// present; otherwise the response is rebuilt from the start snapshot, status
// updates and per-index content deltas, with consecutive text deltas for an
// index coalesced into one item. A sequence that carries no terminal event
// returns [ErrStreamTruncated]; a terminal error event returns an
// [*APIError] built from its payload.
func ResponseFromEvents(events []StreamEvent) (*InteractionResponse, error) {
	resp := &InteractionResponse{}
	indexed := make(map[int]Contents)
	var order []int
	current := -1

	finalize := func() *InteractionResponse {
		for _, idx := range order {
			resp.Outputs = append(resp.Outputs, mergeTextDeltas(indexed[idx])...)
		}
		return resp
	}

	for _, ev := range events {
		switch c := ev.Chunk.(type) {
		case *StartChunk:
			if c.Snapshot != nil {
				snap := *c.Snapshot
				resp = &snap
			}
		case *StatusChunk:
			if c.ID != "" {
				resp.ID = c.ID
			}
			resp.Status = c.Status
		case *ContentStartChunk:
			current = c.Index
			if _, ok := indexed[current]; !ok {
				order = append(order, current)
			}
		case *DeltaChunk:
			idx := current
			if _, ok := indexed[idx]; !ok {
				order = append(order, idx)
			}
			indexed[idx] = append(indexed[idx], c.Item)
		case *ContentStopChunk:
			current = -1
		case *CompleteChunk:
			if c.Response != nil {
				return c.Response, nil
			}
			return finalize(), nil
		case *ErrorChunk:
			return nil, &APIError{Code: c.Code, Message: c.Message}
		}
	}
	return nil, ErrStreamTruncated
}

// mergeTextDeltas consolidates runs of consecutive [TextItem] values into
// single items and passes everything else through unchanged.
func mergeTextDeltas(cs Contents) Contents {
	if len(cs) == 0 {
		return nil
	}
	var merged Contents
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			merged = append(merged, &TextItem{Text: buf.String()})
			buf.Reset()
		}
	}
	for _, c := range cs {
		if tc, ok := c.(*TextItem); ok {
			buf.WriteString(tc.Text)
			continue
		}
		flush()
		merged = append(merged, c)
	}
	flush()
	return merged
}
