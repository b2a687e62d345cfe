// Copyright (c) Microsoft. All rights reserved.

// Command tools demonstrates the streaming tool loop: wire events print as
// they arrive, and the synthetic notices show per-call timing. Arguments
// are validated against each tool's schema before invocation, and the full
// exchange is captured in a transcript.
//
//	export INTERACTIONS_API_KEY=...
//	go run .
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/parallaxis/interactions-go/interactions"
	"github.com/parallaxis/interactions-go/toolloop"
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

	lookupTool := toolloop.NewTypedTool("lookup_order",
		"Look up an order by its number.",
		func(ctx context.Context, args struct {
			OrderNumber string `json:"order_number" jsonschema:"description=Order number like ORD-1234,required"`
		}) (any, error) {
			// Simulated order system
			return map[string]any{
				"order_number": args.OrderNumber,
				"status":       "shipped",
				"carrier":      "postnord",
			}, nil
		},
	)

	transcript := toolloop.NewMemoryTranscript()
	runner, err := toolloop.NewRunner(client,
		[]toolloop.Tool{lookupTool},
		toolloop.WithMaxRounds(4),
		toolloop.WithSchemaValidation(),
		toolloop.WithTranscript(transcript),
	)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	ctx := context.Background()
	stream := runner.RunStream(ctx, &interactions.InteractionRequest{
		Model: "generator-pro",
		Input: interactions.TextInput("Where is order ORD-7731?"),
	})
	defer stream.Close()

	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			log.Fatalf("run: %v", err)
		}
		if !ok {
			break
		}
		switch e := ev.(type) {
		case *toolloop.StreamUpdate:
			if delta, ok := e.Event.Chunk.(*interactions.DeltaChunk); ok {
				if text, ok := delta.Item.(*interactions.TextItem); ok {
					fmt.Print(text.Text)
				}
			}
		case *toolloop.ToolsExecuting:
			fmt.Printf("\n[executing %d tool call(s)]\n", len(e.Calls))
		case *toolloop.ToolsCompleted:
			for _, res := range e.Results {
				status := "ok"
				if res.Err != nil {
					status = res.Err.Error()
				}
				fmt.Printf("[%s (%s) finished in %s: %s]\n", res.Name, res.CallID, res.Duration, status)
			}
		}
	}
	fmt.Println()

	recorded, err := transcript.List(ctx)
	if err != nil {
		log.Fatalf("transcript: %v", err)
	}
	fmt.Printf("transcript captured %d round(s)\n", len(recorded))
}
