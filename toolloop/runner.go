// Copyright (c) Microsoft. All rights reserved.

package toolloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/parallaxis/interactions-go/interactions"
)

// DefaultMaxRounds bounds the tool-calling loop when no explicit limit is
// configured.
const DefaultMaxRounds = 8

// InteractionClient is the subset of the interactions client the runner
// drives. *interactions.Client satisfies it; tests substitute fakes.
type InteractionClient interface {
	Create(ctx context.Context, req *interactions.InteractionRequest) (*interactions.InteractionResponse, error)
	CreateStream(ctx context.Context, req *interactions.InteractionRequest) (*interactions.InteractionStream, error)
}

// FunctionCallRecord is one pending function call extracted from a response.
type FunctionCallRecord struct {
	CallID string
	Name   string
	Args   json.RawMessage
}

// ToolExecutionResult is the outcome of invoking one function call. Results
// are reported in original call order regardless of completion order.
type ToolExecutionResult struct {
	CallID   string
	Name     string
	Result   any
	Err      error
	Duration time.Duration
}

// Runner drives the auto-function-calling loop: send a request, execute any
// function calls the model makes, feed the results back, and repeat until
// the model stops calling tools or the round limit is hit.
type Runner struct {
	client         InteractionClient
	tools          map[string]Tool
	declarations   []interactions.ToolDeclaration
	maxRounds      int
	detailedErrors bool
	invoke         FunctionHandler
	validators     map[string]*jsonschema.Schema
	transcript     Transcript
}

// RunnerOption configures a [Runner].
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	maxRounds      int
	detailedErrors bool
	middleware     []FunctionMiddleware
	validateArgs   bool
	transcript     Transcript
}

// WithMaxRounds caps the number of request/response rounds. The loop returns
// [interactions.ErrLoopLimit] when the model is still calling tools after
// the final round.
func WithMaxRounds(n int) RunnerOption {
	return func(c *runnerConfig) {
		c.maxRounds = n
	}
}

// WithDetailedErrors feeds full tool error text back to the model. The
// default is a generic message, so internal error details do not leak into
// model context.
func WithDetailedErrors() RunnerOption {
	return func(c *runnerConfig) {
		c.detailedErrors = true
	}
}

// WithMiddleware wraps tool invocation with the given middleware chain,
// outermost first.
func WithMiddleware(mws ...FunctionMiddleware) RunnerOption {
	return func(c *runnerConfig) {
		c.middleware = append(c.middleware, mws...)
	}
}

// WithSchemaValidation validates each call's arguments against the tool's
// declared JSON Schema before invocation. Invalid arguments become a
// structured error result fed back to the model, never an invocation.
func WithSchemaValidation() RunnerOption {
	return func(c *runnerConfig) {
		c.validateArgs = true
	}
}

// WithTranscript records each round's response into the given transcript.
func WithTranscript(tr Transcript) RunnerOption {
	return func(c *runnerConfig) {
		c.transcript = tr
	}
}

// NewRunner creates a runner over the given tools. Tool names must be
// unique. With [WithSchemaValidation], every tool's schema is compiled here
// so a malformed schema fails fast instead of on first call.
func NewRunner(client InteractionClient, tools []Tool, opts ...RunnerOption) (*Runner, error) {
	cfg := &runnerConfig{maxRounds: DefaultMaxRounds}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxRounds <= 0 {
		cfg.maxRounds = DefaultMaxRounds
	}

	r := &Runner{
		client:         client,
		tools:          make(map[string]Tool, len(tools)),
		maxRounds:      cfg.maxRounds,
		detailedErrors: cfg.detailedErrors,
		invoke: chainFunctionMiddleware(
			func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
				return tool.Invoke(ctx, args)
			},
			cfg.middleware...,
		),
		transcript: cfg.transcript,
	}

	for _, t := range tools {
		if _, dup := r.tools[t.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %q", interactions.ErrValidation, t.Name())
		}
		r.tools[t.Name()] = t
		r.declarations = append(r.declarations,
			interactions.NewFunctionDeclaration(t.Name(), t.Description(), t.Parameters()))
	}

	if cfg.validateArgs {
		r.validators = make(map[string]*jsonschema.Schema, len(tools))
		for _, t := range tools {
			schema, err := compileSchema(t.Name(), t.Parameters())
			if err != nil {
				return nil, fmt.Errorf("%w: schema for tool %q: %v", interactions.ErrValidation, t.Name(), err)
			}
			r.validators[t.Name()] = schema
		}
	}

	return r, nil
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// Run executes the loop in buffered mode and returns the first response that
// contains no pending function calls.
func (r *Runner) Run(ctx context.Context, req *interactions.InteractionRequest) (*interactions.InteractionResponse, error) {
	req = r.prepare(req)

	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.client.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		r.record(ctx, resp)

		calls, err := extractCalls(resp)
		if err != nil {
			return nil, err
		}
		if len(calls) == 0 {
			return resp, nil
		}
		slog.DebugContext(ctx, "executing function calls",
			"interaction_id", resp.ID, "round", round, "calls", len(calls))

		results := r.executeCalls(ctx, calls)
		req = r.followUp(req, resp.ID, results)
	}

	return nil, fmt.Errorf("%w: still calling tools after %d rounds", interactions.ErrLoopLimit, r.maxRounds)
}

// prepare copies the request and declares the runner's tools on it. The
// caller's request is never mutated.
func (r *Runner) prepare(req *interactions.InteractionRequest) *interactions.InteractionRequest {
	cp := *req
	cp.Tools = append([]interactions.ToolDeclaration(nil), req.Tools...)
	cp.Tools = append(cp.Tools, r.declarations...)
	return &cp
}

// extractCalls pulls pending function calls out of a response, enforcing
// that both the response and every call carry the ids a follow-up request
// needs. Synthesizing ids would silently corrupt the continuation chain.
func extractCalls(resp *interactions.InteractionResponse) ([]FunctionCallRecord, error) {
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		return nil, nil
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: response with pending function calls has no interaction id", interactions.ErrValidation)
	}
	records := make([]FunctionCallRecord, 0, len(calls))
	for _, call := range calls {
		if call.ID == "" {
			return nil, fmt.Errorf("%w: function call %q has no call id", interactions.ErrValidation, call.Name)
		}
		records = append(records, FunctionCallRecord{CallID: call.ID, Name: call.Name, Args: call.Args})
	}
	return records, nil
}

// executeCalls runs one round's calls concurrently and joins them all.
// results[i] always corresponds to calls[i].
func (r *Runner) executeCalls(ctx context.Context, calls []FunctionCallRecord) []ToolExecutionResult {
	results := make([]ToolExecutionResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call FunctionCallRecord) {
			defer wg.Done()
			results[i] = r.executeCall(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (r *Runner) executeCall(ctx context.Context, call FunctionCallRecord) ToolExecutionResult {
	start := time.Now()
	res := ToolExecutionResult{CallID: call.CallID, Name: call.Name}

	tool, ok := r.tools[call.Name]
	if !ok {
		// The model may react to the error, so it is a result, not a crash.
		slog.WarnContext(ctx, "model called unknown tool", "tool", call.Name)
		res.Err = &ToolError{ToolName: call.Name, Message: "unknown tool", Err: ErrToolExecution}
		res.Duration = time.Since(start)
		return res
	}

	if schema, ok := r.validators[call.Name]; ok {
		if err := validateArgs(schema, call.Args); err != nil {
			res.Err = &ToolError{ToolName: call.Name, Message: "invalid arguments: " + err.Error(), Err: ErrToolExecution}
			res.Duration = time.Since(start)
			return res
		}
	}

	result, err := r.invoke(ctx, tool, call.Args)
	res.Result = result
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

func validateArgs(schema *jsonschema.Schema, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return schema.Validate(doc)
}

// followUp builds the next round's request: results in original call order,
// chained to the prior response, with the same tools declared again.
func (r *Runner) followUp(prev *interactions.InteractionRequest, interactionID string, results []ToolExecutionResult) *interactions.InteractionRequest {
	items := make([]interactions.ContentItem, 0, len(results))
	for _, res := range results {
		items = append(items, &interactions.FunctionResultItem{
			Name:   res.Name,
			CallID: res.CallID,
			Result: r.resultPayload(res),
		})
	}

	next := *prev
	next.Input = interactions.ContentInput(items...)
	next.PreviousInteractionID = interactionID
	return &next
}

func (r *Runner) resultPayload(res ToolExecutionResult) any {
	if res.Err == nil {
		return res.Result
	}
	msg := "tool execution failed"
	if r.detailedErrors {
		msg = res.Err.Error()
	}
	return map[string]any{"error": msg}
}

func (r *Runner) record(ctx context.Context, resp *interactions.InteractionResponse) {
	if r.transcript == nil {
		return
	}
	if err := r.transcript.Add(ctx, resp); err != nil {
		slog.WarnContext(ctx, "transcript write failed", "interaction_id", resp.ID, "error", err)
	}
}
