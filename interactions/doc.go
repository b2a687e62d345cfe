// Copyright (c) Microsoft. All rights reserved.

// Package interactions is a Go client for the Interactions API, a
// conversational generation service with typed multimodal content, streaming
// delivery, and hosted tool execution.
//
// # Quick Start
//
// Create a client with an API key and run an interaction:
//
//	client := interactions.New(os.Getenv("INTERACTIONS_API_KEY"))
//
//	resp, err := client.Create(ctx, &interactions.InteractionRequest{
//	    Model: "generator-pro",
//	    Input: interactions.TextInput("Explain SSE in one paragraph."),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text())
//
// # Architecture
//
// The package is organized around these key abstractions:
//
//   - [Client]: issues requests and owns authentication, retryable-error
//     classification inputs, and decoding policy.
//   - [ContentItem]: sealed interface over the typed content variants
//     (text, thoughts, media blobs, tool calls and results). Unrecognized
//     variants decode to [*UnknownItem] and re-encode byte-for-byte, so a
//     client built against an older schema never drops data.
//   - [StreamChunk]: sealed interface over stream lifecycle events
//     ([*StartChunk], [*DeltaChunk], [*CompleteChunk], ...). Chunks arrive
//     through an [InteractionStream] in a fixed lifecycle order.
//   - [Retryable]: classifies any error returned by this package so callers
//     can build retry policies without inspecting error strings.
//
// # Streaming
//
// [Client.CreateStream] returns an [InteractionStream]; pull events with
// Next until it reports done, or call Final to fold everything into the
// response the non-streaming call would have returned:
//
//	stream, err := client.CreateStream(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for {
//	    event, ok, err := stream.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    if delta, isDelta := event.Chunk.(*interactions.DeltaChunk); isDelta {
//	        if text, isText := delta.Item.(*interactions.TextItem); isText {
//	            fmt.Print(text.Text)
//	        }
//	    }
//	}
//
// A dropped connection surfaces as [ErrStreamTruncated]; reconnect with
// [Client.GetStream] and [WithLastEventID] to resume where delivery stopped.
//
// # Tool calling
//
// Declare functions on the request with [NewFunctionDeclaration] and answer
// the model's [*FunctionCallItem] outputs with [*FunctionResultItem] inputs
// on a follow-up request, or use the toolloop package to run that exchange
// automatically.
package interactions
