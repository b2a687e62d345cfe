// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Wire event types carried by stream frames.
const (
	eventInteractionStart    = "interaction.start"
	eventInteractionStatus   = "interaction.status_update"
	eventInteractionComplete = "interaction.complete"
	eventContentStart        = "content.start"
	eventContentDelta        = "content.delta"
	eventContentStop         = "content.stop"
	eventError               = "error"
)

// eventEnvelope is the JSON payload of one stream frame: an event-type
// discriminant plus whichever optional fields that event carries.
type eventEnvelope struct {
	EventType   string          `json:"event_type"`
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	Index       *int            `json:"index"`
	ContentType ContentType     `json:"content_type"`
	Content     json.RawMessage `json:"content"`
	Interaction json.RawMessage `json:"interaction"`
	Error       *wireError      `json:"error"`
}

type wireError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// classifyFrame maps one SSE frame onto a typed lifecycle chunk. ok is false
// when the frame is dropped: structurally incomplete lifecycle frames are a
// recoverable protocol violation, logged and skipped so one bad frame does
// not abort a healthy stream. Malformed JSON is fatal ([ErrDecode]), as is
// wire drift in strict mode.
func classifyFrame(ctx context.Context, frame *sseFrame, strict bool) (StreamChunk, bool, error) {
	var env eventEnvelope
	if err := json.Unmarshal(frame.data, &env); err != nil {
		return nil, false, fmt.Errorf("%w: stream frame: %v", ErrDecode, err)
	}

	eventType := env.EventType
	if eventType == "" {
		eventType = frame.event
	}

	drop := func(reason string) (StreamChunk, bool, error) {
		slog.WarnContext(ctx, "dropping malformed stream frame", "event_type", eventType, "reason", reason)
		return nil, false, nil
	}

	switch eventType {
	case eventInteractionStart:
		if len(env.Interaction) == 0 {
			return drop("missing interaction snapshot")
		}
		snap, err := decodeResponse(env.Interaction, strict)
		if err != nil {
			return nil, false, err
		}
		return &StartChunk{Snapshot: snap}, true, nil

	case eventInteractionStatus:
		if env.ID == "" || env.Status == "" {
			return drop("missing id or status")
		}
		return &StatusChunk{ID: env.ID, Status: env.Status}, true, nil

	case eventContentStart:
		if env.Index == nil {
			return drop("missing content index")
		}
		return &ContentStartChunk{Index: *env.Index, ContentType: env.ContentType}, true, nil

	case eventContentDelta:
		if len(env.Content) == 0 {
			return drop("missing content")
		}
		item, err := decodeContent(env.Content, strict)
		if err != nil {
			return nil, false, err
		}
		return &DeltaChunk{Item: item}, true, nil

	case eventContentStop:
		if env.Index == nil {
			return drop("missing content index")
		}
		return &ContentStopChunk{Index: *env.Index}, true, nil

	case eventInteractionComplete:
		if len(env.Interaction) == 0 {
			return drop("missing terminal snapshot")
		}
		resp, err := decodeResponse(env.Interaction, strict)
		if err != nil {
			return nil, false, err
		}
		return &CompleteChunk{Response: resp}, true, nil

	case eventError:
		if env.Error == nil {
			// Terminal error frames without a structured payload still end
			// the stream; synthesize a generic error.
			return &ErrorChunk{Message: "stream error"}, true, nil
		}
		return &ErrorChunk{Message: env.Error.Message, Code: env.Error.Code}, true, nil

	default:
		// Forward compatibility: an unknown event type that carries content
		// is surfaced as a delta. Only interaction.complete may terminate
		// with a snapshot, so an unknown type carrying one is drift.
		if len(env.Content) > 0 {
			item, err := decodeContent(env.Content, strict)
			if err != nil {
				return nil, false, err
			}
			return &DeltaChunk{Item: item}, true, nil
		}
		if len(env.Interaction) > 0 {
			return drop("unknown event type carries an interaction snapshot")
		}
		return nil, false, nil
	}
}

func decodeContent(data []byte, strict bool) (ContentItem, error) {
	if strict {
		return UnmarshalContentItemStrict(data)
	}
	return UnmarshalContentItem(data)
}
