// Copyright (c) Microsoft. All rights reserved.

// Package toolloop drives the automatic function-calling loop on top of the
// interactions client: it declares caller-supplied tools on each request,
// executes the function calls the model makes, feeds the results back, and
// repeats until the model answers or a configured round limit stops it.
//
// Build tools with [NewTypedTool] for schema generation from a struct type,
// or [NewTool] with a hand-written schema. Then run the loop:
//
//	tool := toolloop.NewTypedTool("get_weather", "Current weather for a city",
//	    func(ctx context.Context, args WeatherArgs) (any, error) {
//	        return lookUp(args.City)
//	    })
//
//	runner, err := toolloop.NewRunner(client, []toolloop.Tool{tool},
//	    toolloop.WithMaxRounds(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := runner.Run(ctx, &interactions.InteractionRequest{
//	    Model: "generator-pro",
//	    Input: interactions.TextInput("Do I need an umbrella in Bergen?"),
//	})
//
// Calls within one round execute concurrently; the loop waits for all of
// them and reports results in original call order. Unknown tool names and
// failing tools become structured error results the model can react to,
// never a crash. A loop that keeps calling tools past the round limit stops
// with [interactions.ErrLoopLimit].
//
// [Runner.RunStream] runs the same loop over streaming rounds, forwarding
// every wire event and bracketing each round's execution with [ToolsExecuting]
// and [ToolsCompleted] notices that carry per-call timing.
package toolloop
