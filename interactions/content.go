// Copyright (c) Microsoft. All rights reserved.

package interactions

import "encoding/json"

// ContentType identifies the kind of a [ContentItem] on the wire.
type ContentType string

const (
	ContentTypeText                ContentType = "text"
	ContentTypeThought             ContentType = "thought"
	ContentTypeThoughtSignature    ContentType = "thought_signature"
	ContentTypeImage               ContentType = "image"
	ContentTypeAudio               ContentType = "audio"
	ContentTypeVideo               ContentType = "video"
	ContentTypeDocument            ContentType = "document"
	ContentTypeFunctionCall        ContentType = "function_call"
	ContentTypeFunctionResult      ContentType = "function_result"
	ContentTypeCodeExecutionCall   ContentType = "code_execution_call"
	ContentTypeCodeExecutionResult ContentType = "code_execution_result"
	ContentTypeGoogleSearchCall    ContentType = "google_search_call"
	ContentTypeGoogleSearchResult  ContentType = "google_search_result"
	ContentTypeURLContextCall      ContentType = "url_context_call"
	ContentTypeURLContextResult    ContentType = "url_context_result"
)

// ContentItem is a sealed interface representing one item of interaction
// content. Each concrete type carries the fields for its [ContentType];
// content the client does not recognize decodes to [UnknownItem] so it can
// be replayed verbatim in later turns. Items are never mutated after decode.
// Use a type switch to inspect the underlying type.
type ContentItem interface {
	// Type returns the wire discriminant for this item.
	Type() ContentType

	// sealedItem prevents external implementations.
	sealedItem()
}

// itemBase is embedded by every concrete ContentItem to satisfy the sealed marker.
type itemBase struct{}

func (itemBase) sealedItem() {}

// TextItem holds plain generated or user text.
type TextItem struct {
	itemBase
	Text string
}

func (c *TextItem) Type() ContentType { return ContentTypeText }

// ThoughtItem holds a model reasoning summary.
type ThoughtItem struct {
	itemBase
	Text string
}

func (c *ThoughtItem) Type() ContentType { return ContentTypeThought }

// ThoughtSignatureItem carries an opaque signature over reasoning state.
// It must be replayed unchanged for the service to validate continuations.
type ThoughtSignatureItem struct {
	itemBase
	Signature string
}

func (c *ThoughtSignatureItem) Type() ContentType { return ContentTypeThoughtSignature }

// ImageItem holds image content as inline base64 data or a URI reference.
// At least one of Data and URI is set.
type ImageItem struct {
	itemBase
	Data     string
	URI      string
	MIMEType string
}

func (c *ImageItem) Type() ContentType { return ContentTypeImage }

// AudioItem holds audio content as inline base64 data or a URI reference.
type AudioItem struct {
	itemBase
	Data     string
	URI      string
	MIMEType string
}

func (c *AudioItem) Type() ContentType { return ContentTypeAudio }

// VideoItem holds video content as inline base64 data or a URI reference.
type VideoItem struct {
	itemBase
	Data     string
	URI      string
	MIMEType string
}

func (c *VideoItem) Type() ContentType { return ContentTypeVideo }

// DocumentItem holds document content (e.g. PDF) as inline base64 data or a
// URI reference.
type DocumentItem struct {
	itemBase
	Data     string
	URI      string
	MIMEType string
}

func (c *DocumentItem) Type() ContentType { return ContentTypeDocument }

// FunctionCallItem is a function invocation requested by the model.
type FunctionCallItem struct {
	itemBase
	ID               string
	Name             string
	Args             json.RawMessage
	ThoughtSignature string
}

func (c *FunctionCallItem) Type() ContentType { return ContentTypeFunctionCall }

// FunctionResultItem carries the outcome of a function call back to the model.
type FunctionResultItem struct {
	itemBase
	Name   string
	CallID string
	Result any
}

func (c *FunctionResultItem) Type() ContentType { return ContentTypeFunctionResult }

// CodeExecutionCallItem is a server-side code execution performed by the model.
type CodeExecutionCallItem struct {
	itemBase
	ID       string
	Language string
	Code     string
}

func (c *CodeExecutionCallItem) Type() ContentType { return ContentTypeCodeExecutionCall }

// CodeExecutionResultItem is the outcome of a server-side code execution.
type CodeExecutionResultItem struct {
	itemBase
	CallID  string
	Outcome string
	Output  string
}

func (c *CodeExecutionResultItem) Type() ContentType { return ContentTypeCodeExecutionResult }

// GoogleSearchCallItem records the queries issued by the built-in search tool.
type GoogleSearchCallItem struct {
	itemBase
	ID      string
	Queries []string
}

func (c *GoogleSearchCallItem) Type() ContentType { return ContentTypeGoogleSearchCall }

// GoogleSearchResultItem carries the results returned by the built-in search tool.
type GoogleSearchResultItem struct {
	itemBase
	CallID  string
	Results any
}

func (c *GoogleSearchResultItem) Type() ContentType { return ContentTypeGoogleSearchResult }

// URLContextCallItem records the URLs fetched by the URL context tool.
type URLContextCallItem struct {
	itemBase
	ID   string
	URLs []string
}

func (c *URLContextCallItem) Type() ContentType { return ContentTypeURLContextCall }

// URLContextResultItem carries the content retrieved by the URL context tool.
type URLContextResultItem struct {
	itemBase
	CallID  string
	Results any
}

func (c *URLContextResultItem) Type() ContentType { return ContentTypeURLContextResult }

// UnknownItem preserves a content item whose discriminant the client does not
// recognize, or whose payload does not match any shape the client knows for
// that discriminant. Raw holds the original JSON object so the item
// re-encodes to an equivalent object and can be sent back to the service
// unchanged.
type UnknownItem struct {
	itemBase
	TypeName string
	Raw      json.RawMessage
}

func (c *UnknownItem) Type() ContentType { return ContentType(c.TypeName) }
