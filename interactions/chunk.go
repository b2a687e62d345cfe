// Copyright (c) Microsoft. All rights reserved.

package interactions

// ChunkKind identifies the kind of a [StreamChunk].
type ChunkKind string

const (
	ChunkKindStart        ChunkKind = "start"
	ChunkKindStatus       ChunkKind = "status_update"
	ChunkKindContentStart ChunkKind = "content_start"
	ChunkKindDelta        ChunkKind = "delta"
	ChunkKindContentStop  ChunkKind = "content_stop"
	ChunkKindComplete     ChunkKind = "complete"
	ChunkKindError        ChunkKind = "error"
)

// StreamChunk is a sealed interface over the typed lifecycle events of one
// streamed interaction. The logical ordering per interaction is
//
//	Start → (StatusUpdate | ContentStart Delta* ContentStop)* → (Complete | Error)
//
// and a well-formed stream ends in exactly one of [CompleteChunk] or
// [ErrorChunk]. Use a type switch to inspect the underlying type.
type StreamChunk interface {
	// Kind returns the chunk's discriminant.
	Kind() ChunkKind

	// sealedChunk prevents external implementations.
	sealedChunk()
}

type chunkBase struct{}

func (chunkBase) sealedChunk() {}

// StartChunk opens a stream with the interaction's initial snapshot.
type StartChunk struct {
	chunkBase
	Snapshot *InteractionResponse
}

func (c *StartChunk) Kind() ChunkKind { return ChunkKindStart }

// StatusChunk reports a lifecycle transition for an in-flight interaction.
type StatusChunk struct {
	chunkBase
	ID     string
	Status Status
}

func (c *StatusChunk) Kind() ChunkKind { return ChunkKindStatus }

// ContentStartChunk opens the output slot at Index. ContentType is
// best-effort and may be empty.
type ContentStartChunk struct {
	chunkBase
	Index       int
	ContentType ContentType
}

func (c *ContentStartChunk) Kind() ChunkKind { return ChunkKindContentStart }

// DeltaChunk carries one incremental content item.
type DeltaChunk struct {
	chunkBase
	Item ContentItem
}

func (c *DeltaChunk) Kind() ChunkKind { return ChunkKindDelta }

// ContentStopChunk closes the output slot at Index.
type ContentStopChunk struct {
	chunkBase
	Index int
}

func (c *ContentStopChunk) Kind() ChunkKind { return ChunkKindContentStop }

// CompleteChunk terminates a stream with the final interaction snapshot.
type CompleteChunk struct {
	chunkBase
	Response *InteractionResponse
}

func (c *CompleteChunk) Kind() ChunkKind { return ChunkKindComplete }

// ErrorChunk terminates a stream with a service-reported failure.
type ErrorChunk struct {
	chunkBase
	Message string
	Code    string
}

func (c *ErrorChunk) Kind() ChunkKind { return ChunkKindError }

// terminal reports whether c ends the stream.
func terminal(c StreamChunk) bool {
	switch c.(type) {
	case *CompleteChunk, *ErrorChunk:
		return true
	}
	return false
}

// StreamEvent is the unit a stream consumer observes: a lifecycle chunk plus
// the frame's resumption token, when the service supplied one. Passing the
// last observed EventID to [Client.GetStream] resumes a stream after a
// disconnect.
type StreamEvent struct {
	Chunk   StreamChunk
	EventID string
}
