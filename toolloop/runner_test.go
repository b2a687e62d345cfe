// Copyright (c) Microsoft. All rights reserved.

package toolloop_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parallaxis/interactions-go/interactions"
	"github.com/parallaxis/interactions-go/toolloop"
)

// fakeClient feeds scripted responses to the runner and records every
// request it receives.
type fakeClient struct {
	mu        sync.Mutex
	requests  []*interactions.InteractionRequest
	responses []*interactions.InteractionResponse
	err       error
}

func (f *fakeClient) Create(_ context.Context, req *interactions.InteractionRequest) (*interactions.InteractionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("fakeClient: out of scripted responses")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeClient) CreateStream(ctx context.Context, req *interactions.InteractionRequest) (*interactions.InteractionStream, error) {
	resp, err := f.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	events := []interactions.StreamEvent{
		{Chunk: &interactions.StartChunk{Snapshot: &interactions.InteractionResponse{ID: resp.ID, Status: interactions.StatusInProgress}}},
		{Chunk: &interactions.CompleteChunk{Response: resp}},
	}
	s := interactions.NewStream(ctx, func(ctx context.Context, ch chan<- interactions.StreamEvent) error {
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	return interactions.NewInteractionStream(s), nil
}

func callResponse(id string, calls ...*interactions.FunctionCallItem) *interactions.InteractionResponse {
	outputs := make(interactions.Contents, 0, len(calls))
	for _, c := range calls {
		outputs = append(outputs, c)
	}
	return &interactions.InteractionResponse{
		ID:      id,
		Status:  interactions.StatusCompleted,
		Outputs: outputs,
	}
}

func textResponse(id, text string) *interactions.InteractionResponse {
	return &interactions.InteractionResponse{
		ID:      id,
		Status:  interactions.StatusCompleted,
		Outputs: interactions.Contents{&interactions.TextItem{Text: text}},
	}
}

func echoTool(name string) toolloop.Tool {
	return toolloop.NewTool(name, "echoes its arguments",
		json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, args json.RawMessage) (any, error) {
			return map[string]any{"echo": string(args)}, nil
		})
}

func request() *interactions.InteractionRequest {
	return &interactions.InteractionRequest{
		Model: "generator-pro",
		Input: interactions.TextInput("go"),
	}
}

func TestRunner_NoToolCalls(t *testing.T) {
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		textResponse("i-1", "done straight away"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	resp, err := runner.Run(context.Background(), request())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Text() != "done straight away" {
		t.Errorf("text = %q", resp.Text())
	}
	if len(client.requests) != 1 {
		t.Errorf("requests = %d", len(client.requests))
	}
	if len(client.requests[0].Tools) != 1 || client.requests[0].Tools[0].Name != "echo" {
		t.Errorf("tools = %+v", client.requests[0].Tools)
	}
}

func TestRunner_SingleRound(t *testing.T) {
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{
			ID: "c1", Name: "echo", Args: json.RawMessage(`{"x":1}`),
		}),
		textResponse("i-2", "all done"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	resp, err := runner.Run(context.Background(), request())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.ID != "i-2" {
		t.Errorf("final id = %q", resp.ID)
	}

	if len(client.requests) != 2 {
		t.Fatalf("requests = %d", len(client.requests))
	}
	followUp := client.requests[1]
	if followUp.PreviousInteractionID != "i-1" {
		t.Errorf("previous_interaction_id = %q", followUp.PreviousInteractionID)
	}
	if len(followUp.Tools) != 1 {
		t.Errorf("tools not re-declared: %+v", followUp.Tools)
	}
}

func TestRunner_ResultOrderMatchesCallOrder(t *testing.T) {
	// c1 finishes long after c2; results must still arrive as c1, c2.
	slow := toolloop.NewTool("slow", "", json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, _ json.RawMessage) (any, error) {
			time.Sleep(50 * time.Millisecond)
			return "slow done", nil
		})
	fast := toolloop.NewTool("fast", "", json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, _ json.RawMessage) (any, error) {
			return "fast done", nil
		})

	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1",
			&interactions.FunctionCallItem{ID: "c1", Name: "slow", Args: json.RawMessage(`{}`)},
			&interactions.FunctionCallItem{ID: "c2", Name: "fast", Args: json.RawMessage(`{}`)},
		),
		textResponse("i-2", "done"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{slow, fast})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	followUp := client.requests[1]
	data, err := json.Marshal(followUp.Input)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("re-parse input: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("results = %d, want 2", len(items))
	}
	if items[0]["call_id"] != "c1" || items[1]["call_id"] != "c2" {
		t.Errorf("result order: %v, %v", items[0]["call_id"], items[1]["call_id"])
	}
	if items[0]["type"] != "function_result" {
		t.Errorf("item type = %v", items[0]["type"])
	}
}

func TestRunner_LoopLimit(t *testing.T) {
	// The model requests another call every round; with max rounds N the
	// runner performs exactly N requests then stops.
	const n = 3
	var responses []*interactions.InteractionResponse
	for i := 0; i < n+2; i++ {
		responses = append(responses, callResponse("i-x", &interactions.FunctionCallItem{
			ID: "c1", Name: "echo", Args: json.RawMessage(`{}`),
		}))
	}
	client := &fakeClient{responses: responses}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")},
		toolloop.WithMaxRounds(n))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	_, err = runner.Run(context.Background(), request())
	if !errors.Is(err, interactions.ErrLoopLimit) {
		t.Fatalf("err = %v, want ErrLoopLimit", err)
	}
	if len(client.requests) != n {
		t.Errorf("requests = %d, want exactly %d", len(client.requests), n)
	}
}

func TestRunner_MissingIDs(t *testing.T) {
	t.Run("response without id", func(t *testing.T) {
		resp := callResponse("", &interactions.FunctionCallItem{
			ID: "c1", Name: "echo", Args: json.RawMessage(`{}`),
		})
		client := &fakeClient{responses: []*interactions.InteractionResponse{resp}}
		runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		_, err = runner.Run(context.Background(), request())
		if !errors.Is(err, interactions.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("call without id", func(t *testing.T) {
		resp := callResponse("i-1", &interactions.FunctionCallItem{
			Name: "echo", Args: json.RawMessage(`{}`),
		})
		client := &fakeClient{responses: []*interactions.InteractionResponse{resp}}
		runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		_, err = runner.Run(context.Background(), request())
		if !errors.Is(err, interactions.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
		// No follow-up request may be built from a guessed id.
		if len(client.requests) != 1 {
			t.Errorf("requests = %d, want 1", len(client.requests))
		}
	})
}

func TestRunner_UnknownTool(t *testing.T) {
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{
			ID: "c1", Name: "nonexistent", Args: json.RawMessage(`{}`),
		}),
		textResponse("i-2", "recovered"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	resp, err := runner.Run(context.Background(), request())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.ID != "i-2" {
		t.Errorf("final id = %q", resp.ID)
	}

	// The unknown call produced an error result the model could react to.
	data, _ := json.Marshal(client.requests[1].Input)
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("re-parse input: %v", err)
	}
	if len(items) != 1 || items[0]["call_id"] != "c1" {
		t.Fatalf("items = %v", items)
	}
	result, ok := items[0]["result"].(map[string]any)
	if !ok || result["error"] == nil {
		t.Errorf("result = %v, want structured error", items[0]["result"])
	}
}

func TestRunner_ToolErrorFedBack(t *testing.T) {
	failing := toolloop.NewTool("failing", "", json.RawMessage(`{"type":"object"}`),
		func(_ context.Context, _ json.RawMessage) (any, error) {
			return nil, errors.New("database on fire")
		})
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{ID: "c1", Name: "failing", Args: json.RawMessage(`{}`)}),
		textResponse("i-2", "done"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{failing})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, _ := json.Marshal(client.requests[1].Input)
	var items []map[string]any
	json.Unmarshal(data, &items)
	result := items[0]["result"].(map[string]any)
	msg, _ := result["error"].(string)
	if msg == "" {
		t.Fatal("no error message in result")
	}
	// Detail is suppressed unless WithDetailedErrors is set.
	if msg != "tool execution failed" {
		t.Errorf("error = %q, want generic message", msg)
	}
}

func TestRunner_SchemaValidation(t *testing.T) {
	strictTool := toolloop.NewTool("add", "adds integers",
		json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}`),
		func(_ context.Context, args json.RawMessage) (any, error) {
			var v struct{ A, B int }
			if err := json.Unmarshal(args, &v); err != nil {
				return nil, err
			}
			return v.A + v.B, nil
		})

	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{
			ID: "c1", Name: "add", Args: json.RawMessage(`{"a":"not a number"}`),
		}),
		textResponse("i-2", "done"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{strictTool},
		toolloop.WithSchemaValidation(), toolloop.WithDetailedErrors())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, _ := json.Marshal(client.requests[1].Input)
	var items []map[string]any
	json.Unmarshal(data, &items)
	result := items[0]["result"].(map[string]any)
	msg, _ := result["error"].(string)
	if msg == "" {
		t.Fatal("invalid arguments were not rejected")
	}
}

func TestRunner_Transcript(t *testing.T) {
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{ID: "c1", Name: "echo", Args: json.RawMessage(`{}`)}),
		textResponse("i-2", "done"),
	}}
	transcript := toolloop.NewMemoryTranscript()
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")},
		toolloop.WithTranscript(transcript))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recorded, err := transcript.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recorded) != 2 || recorded[0].ID != "i-1" || recorded[1].ID != "i-2" {
		t.Errorf("transcript = %+v", recorded)
	}
}

func TestRunner_MiddlewareWrapsInvocation(t *testing.T) {
	var order []string
	var mu sync.Mutex
	note := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	mw := func(next toolloop.FunctionHandler) toolloop.FunctionHandler {
		return func(ctx context.Context, tool toolloop.Tool, args json.RawMessage) (any, error) {
			note("before:" + tool.Name())
			result, err := next(ctx, tool, args)
			note("after:" + tool.Name())
			return result, err
		}
	}

	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{ID: "c1", Name: "echo", Args: json.RawMessage(`{}`)}),
		textResponse("i-2", "done"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")},
		toolloop.WithMiddleware(mw))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), request()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 2 || order[0] != "before:echo" || order[1] != "after:echo" {
		t.Errorf("order = %v", order)
	}
}

func TestRunner_DuplicateToolName(t *testing.T) {
	_, err := toolloop.NewRunner(&fakeClient{}, []toolloop.Tool{echoTool("echo"), echoTool("echo")})
	if !errors.Is(err, interactions.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRunner_RunStream(t *testing.T) {
	client := &fakeClient{responses: []*interactions.InteractionResponse{
		callResponse("i-1", &interactions.FunctionCallItem{ID: "c1", Name: "echo", Args: json.RawMessage(`{"q":"x"}`)}),
		textResponse("i-2", "streamed answer"),
	}}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	stream := runner.RunStream(context.Background(), request())
	defer stream.Close()

	var sawExecuting, sawCompleted bool
	var updates int
	for {
		ev, ok, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		switch e := ev.(type) {
		case *toolloop.StreamUpdate:
			updates++
		case *toolloop.ToolsExecuting:
			sawExecuting = true
			if len(e.Calls) != 1 || e.Calls[0].CallID != "c1" {
				t.Errorf("executing calls = %+v", e.Calls)
			}
			if sawCompleted {
				t.Error("executing notice after completed notice")
			}
		case *toolloop.ToolsCompleted:
			sawCompleted = true
			if len(e.Results) != 1 || e.Results[0].CallID != "c1" {
				t.Errorf("results = %+v", e.Results)
			}
			if e.Results[0].Err != nil {
				t.Errorf("result err = %v", e.Results[0].Err)
			}
			if e.Results[0].Duration < 0 {
				t.Errorf("duration = %v", e.Results[0].Duration)
			}
		}
	}

	if !sawExecuting || !sawCompleted {
		t.Errorf("sawExecuting=%v sawCompleted=%v", sawExecuting, sawCompleted)
	}
	// Two rounds, two wire events forwarded per round.
	if updates != 4 {
		t.Errorf("stream updates = %d, want 4", updates)
	}
}

func TestRunner_ClientErrorPropagates(t *testing.T) {
	cause := &interactions.APIError{Status: 500, Message: "boom"}
	client := &fakeClient{err: cause}
	runner, err := toolloop.NewRunner(client, []toolloop.Tool{echoTool("echo")})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	_, err = runner.Run(context.Background(), request())
	var apiErr *interactions.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Errorf("err = %v, want the client's *APIError", err)
	}
}
