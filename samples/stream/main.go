// Copyright (c) Microsoft. All rights reserved.

// Command stream demonstrates streaming an interaction: text deltas are
// printed as they arrive, and a dropped stream is resumed from the last
// delivered event id.
//
//	export INTERACTIONS_API_KEY=...
//	go run . "Write a haiku about blue-green deployments."
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/parallaxis/interactions-go/interactions"
)

func main() {
	_ = godotenv.Load()

	key := os.Getenv("INTERACTIONS_API_KEY")
	if key == "" {
		log.Fatal("Set INTERACTIONS_API_KEY")
	}
	var opts []interactions.Option
	if base := os.Getenv("INTERACTIONS_BASE_URL"); base != "" {
		opts = append(opts, interactions.WithBaseURL(base))
	}
	client := interactions.New(key, opts...)

	prompt := "Explain how SSE resumption works, briefly."
	if len(os.Args) > 1 {
		prompt = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()
	stream, err := client.CreateStream(ctx, &interactions.InteractionRequest{
		Model: "generator-pro",
		Input: interactions.TextInput(prompt),
	})
	if err != nil {
		log.Fatalf("CreateStream: %v", err)
	}
	defer stream.Close()

	var interactionID, lastEventID string
	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, interactions.ErrStreamTruncated) && interactionID != "" {
				fmt.Println("\n[connection dropped, resuming]")
				resume(ctx, client, interactionID, lastEventID)
				return
			}
			log.Fatalf("stream: %v", err)
		}
		if !ok {
			break
		}
		if ev.EventID != "" {
			lastEventID = ev.EventID
		}
		printChunk(ev.Chunk, &interactionID)
	}
	fmt.Println()
}

// resume re-attaches to the interaction after the last delivered event.
func resume(ctx context.Context, client *interactions.Client, id, lastEventID string) {
	stream, err := client.GetStream(ctx, id, interactions.WithLastEventID(lastEventID))
	if err != nil {
		log.Fatalf("GetStream: %v", err)
	}
	defer stream.Close()

	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			log.Fatalf("resumed stream: %v", err)
		}
		if !ok {
			break
		}
		printChunk(ev.Chunk, &id)
	}
	fmt.Println()
}

func printChunk(chunk interactions.StreamChunk, interactionID *string) {
	switch c := chunk.(type) {
	case *interactions.StartChunk:
		*interactionID = c.Snapshot.ID
	case *interactions.DeltaChunk:
		if text, ok := c.Item.(*interactions.TextItem); ok {
			fmt.Print(text.Text)
		}
	case *interactions.CompleteChunk:
		if c.Response.Usage != nil {
			fmt.Printf("\n[%d tokens]", c.Response.Usage.TotalTokens)
		}
	case *interactions.ErrorChunk:
		fmt.Printf("\n[stream error: %s]", c.Message)
	}
}
