// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"encoding/json"
	"fmt"
)

// Input is the request input in one of three forms: plain text, a content
// list, or a turn list. Construct it with [TextInput], [ContentInput] or
// [TurnsInput]; the zero value marshals as JSON null and fails request
// validation.
type Input struct {
	text  string
	items Contents
	turns []Turn
	form  inputForm
}

type inputForm int

const (
	inputNone inputForm = iota
	inputText
	inputContent
	inputTurns
)

// TextInput wraps a plain text prompt.
func TextInput(text string) Input {
	return Input{text: text, form: inputText}
}

// ContentInput wraps an ordered content list.
func ContentInput(items ...ContentItem) Input {
	return Input{items: items, form: inputContent}
}

// TurnsInput wraps an explicit multi-turn transcript.
func TurnsInput(turns ...Turn) Input {
	return Input{turns: turns, form: inputTurns}
}

// MarshalJSON emits a string, a content array or a turn array depending on
// how the Input was constructed.
func (in Input) MarshalJSON() ([]byte, error) {
	switch in.form {
	case inputText:
		return json.Marshal(in.text)
	case inputContent:
		return json.Marshal(in.items)
	case inputTurns:
		return json.Marshal(in.turns)
	default:
		return []byte("null"), nil
	}
}

// GenerationConfig tunes model sampling for one interaction. Pointer fields
// use nil for "service default".
type GenerationConfig struct {
	Temperature       *float64 `json:"temperature,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	MaxOutputTokens   *int     `json:"max_output_tokens,omitempty"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
	Seed              *int     `json:"seed,omitempty"`
	SystemInstruction string   `json:"system_instruction,omitempty"`
}

// ToolDeclaration advertises one callable function to the model.
type ToolDeclaration struct {
	Kind        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// NewFunctionDeclaration builds a function-kind [ToolDeclaration] from a
// name, description and JSON Schema parameters document.
func NewFunctionDeclaration(name, description string, parameters json.RawMessage) ToolDeclaration {
	return ToolDeclaration{
		Kind:        "function",
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}

// InteractionRequest describes one interaction with the generation service.
// Exactly one of Model and Agent selects the target.
type InteractionRequest struct {
	Model string `json:"model,omitempty"`
	Agent string `json:"agent,omitempty"`

	Input Input `json:"input"`

	Tools  []ToolDeclaration `json:"tools,omitempty"`
	Config *GenerationConfig `json:"generation_config,omitempty"`

	Stream     bool  `json:"stream,omitempty"`
	Background bool  `json:"background,omitempty"`
	Store      *bool `json:"store,omitempty"`

	// PreviousInteractionID chains this request onto a stored interaction,
	// carrying its conversation state forward server-side.
	PreviousInteractionID string `json:"previous_interaction_id,omitempty"`
}

// AddTool appends a tool declaration to the request.
func (r *InteractionRequest) AddTool(d ToolDeclaration) {
	r.Tools = append(r.Tools, d)
}

// validate checks caller preconditions before the request is sent.
func (r *InteractionRequest) validate() error {
	switch {
	case r.Model == "" && r.Agent == "":
		return fmt.Errorf("%w: one of Model or Agent is required", ErrValidation)
	case r.Model != "" && r.Agent != "":
		return fmt.Errorf("%w: Model and Agent are mutually exclusive", ErrValidation)
	case r.Input.form == inputNone:
		return fmt.Errorf("%w: Input is required", ErrValidation)
	}
	return nil
}
