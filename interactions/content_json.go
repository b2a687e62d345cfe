// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// MarshalContentItem marshals a single [ContentItem] into its flat wire
// object: the "type" discriminant plus the variant's present fields.
func MarshalContentItem(c ContentItem) ([]byte, error) {
	switch v := c.(type) {
	case *TextItem:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{string(ContentTypeText), v.Text})

	case *ThoughtItem:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		}{string(ContentTypeThought), v.Text})

	case *ThoughtSignatureItem:
		return json.Marshal(struct {
			Type      string `json:"type"`
			Signature string `json:"signature"`
		}{string(ContentTypeThoughtSignature), v.Signature})

	case *ImageItem:
		return marshalBlob(ContentTypeImage, v.Data, v.URI, v.MIMEType)

	case *AudioItem:
		return marshalBlob(ContentTypeAudio, v.Data, v.URI, v.MIMEType)

	case *VideoItem:
		return marshalBlob(ContentTypeVideo, v.Data, v.URI, v.MIMEType)

	case *DocumentItem:
		return marshalBlob(ContentTypeDocument, v.Data, v.URI, v.MIMEType)

	case *FunctionCallItem:
		return json.Marshal(struct {
			Type             string          `json:"type"`
			ID               string          `json:"id,omitempty"`
			Name             string          `json:"name"`
			Args             json.RawMessage `json:"args,omitempty"`
			ThoughtSignature string          `json:"thought_signature,omitempty"`
		}{string(ContentTypeFunctionCall), v.ID, v.Name, v.Args, v.ThoughtSignature})

	case *FunctionResultItem:
		return json.Marshal(struct {
			Type   string `json:"type"`
			Name   string `json:"name,omitempty"`
			CallID string `json:"call_id"`
			Result any    `json:"result"`
		}{string(ContentTypeFunctionResult), v.Name, v.CallID, v.Result})

	case *CodeExecutionCallItem:
		return json.Marshal(struct {
			Type     string `json:"type"`
			ID       string `json:"id,omitempty"`
			Language string `json:"language"`
			Code     string `json:"code"`
		}{string(ContentTypeCodeExecutionCall), v.ID, v.Language, v.Code})

	case *CodeExecutionResultItem:
		return json.Marshal(struct {
			Type    string `json:"type"`
			CallID  string `json:"call_id,omitempty"`
			Outcome string `json:"outcome"`
			Output  string `json:"output"`
		}{string(ContentTypeCodeExecutionResult), v.CallID, v.Outcome, v.Output})

	case *GoogleSearchCallItem:
		return json.Marshal(struct {
			Type    string   `json:"type"`
			ID      string   `json:"id,omitempty"`
			Queries []string `json:"queries"`
		}{string(ContentTypeGoogleSearchCall), v.ID, v.Queries})

	case *GoogleSearchResultItem:
		return json.Marshal(struct {
			Type    string `json:"type"`
			CallID  string `json:"call_id,omitempty"`
			Results any    `json:"results"`
		}{string(ContentTypeGoogleSearchResult), v.CallID, v.Results})

	case *URLContextCallItem:
		return json.Marshal(struct {
			Type string   `json:"type"`
			ID   string   `json:"id,omitempty"`
			URLs []string `json:"urls"`
		}{string(ContentTypeURLContextCall), v.ID, v.URLs})

	case *URLContextResultItem:
		return json.Marshal(struct {
			Type    string `json:"type"`
			CallID  string `json:"call_id,omitempty"`
			Results any    `json:"results"`
		}{string(ContentTypeURLContextResult), v.CallID, v.Results})

	case *UnknownItem:
		return marshalUnknown(v)

	default:
		return nil, fmt.Errorf("unknown content item type: %T", c)
	}
}

func marshalBlob(t ContentType, data, uri, mime string) ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Data     string `json:"data,omitempty"`
		URI      string `json:"uri,omitempty"`
		MIMEType string `json:"mime_type"`
	}{string(t), data, uri, mime})
}

// marshalUnknown is the single flattening rule for unrecognized content: the
// preserved raw object's fields are emitted inline with the stored type name
// as the discriminant (any inner "type" key is replaced). Non-object raw data
// nests under "data"; null raw data adds no keys. Because the fields pass
// through a Go map, key order is canonical and re-encoding is deterministic.
func marshalUnknown(u *UnknownItem) ([]byte, error) {
	if len(u.Raw) == 0 {
		return json.Marshal(map[string]any{"type": u.TypeName})
	}
	var v any
	if err := json.Unmarshal(u.Raw, &v); err != nil {
		return nil, fmt.Errorf("unknown item %q raw: %w", u.TypeName, err)
	}
	switch obj := v.(type) {
	case map[string]any:
		obj["type"] = u.TypeName
		return json.Marshal(obj)
	case nil:
		return json.Marshal(map[string]any{"type": u.TypeName})
	default:
		return json.Marshal(map[string]any{"type": u.TypeName, "data": v})
	}
}

// UnmarshalContentItem decodes a single content item from its wire object.
// An unrecognized discriminant, or a recognized discriminant whose payload
// matches neither its current nor its legacy shape, decodes to [UnknownItem]
// with a warning; it is never silently coerced to a zero-valued known
// variant. Malformed JSON is a hard [ErrDecode].
func UnmarshalContentItem(data []byte) (ContentItem, error) {
	item, known, err := decodeItem(data)
	if err != nil {
		return nil, err
	}
	if !known {
		u := item.(*UnknownItem)
		slog.Warn("decoding unrecognized content item as unknown", "type", u.TypeName)
	}
	return item, nil
}

// UnmarshalContentItemStrict decodes like [UnmarshalContentItem] but turns
// any item that would degrade to [UnknownItem] into a hard [ErrDecode].
// Intended for callers that want immediate notice of wire drift.
func UnmarshalContentItemStrict(data []byte) (ContentItem, error) {
	item, known, err := decodeItem(data)
	if err != nil {
		return nil, err
	}
	if !known {
		u := item.(*UnknownItem)
		return nil, fmt.Errorf("%w: unrecognized content item %q", ErrDecode, u.TypeName)
	}
	return item, nil
}

// decodeItem dispatches on the "type" discriminant. known is false when the
// result is an [UnknownItem]; err is non-nil only for malformed JSON.
func decodeItem(data []byte) (item ContentItem, known bool, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, fmt.Errorf("%w: content item: %v", ErrDecode, err)
	}

	var typeName string
	if raw, ok := fields["type"]; ok {
		// Non-string discriminants are treated as unrecognized, not fatal.
		_ = json.Unmarshal(raw, &typeName)
	}

	unknown := func() (ContentItem, bool, error) {
		return &UnknownItem{TypeName: typeName, Raw: append(json.RawMessage(nil), data...)}, false, nil
	}

	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := fields[k]; !ok {
				return false
			}
		}
		return true
	}

	switch ContentType(typeName) {
	case ContentTypeText:
		var v struct {
			Text string `json:"text"`
		}
		if !has("text") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &TextItem{Text: v.Text}, true, nil

	case ContentTypeThought:
		var v struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &ThoughtItem{Text: v.Text}, true, nil

	case ContentTypeThoughtSignature:
		var v struct {
			Signature string `json:"signature"`
		}
		if !has("signature") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &ThoughtSignatureItem{Signature: v.Signature}, true, nil

	case ContentTypeImage:
		d, u, m, ok := decodeBlob(data, has)
		if !ok {
			return unknown()
		}
		return &ImageItem{Data: d, URI: u, MIMEType: m}, true, nil

	case ContentTypeAudio:
		d, u, m, ok := decodeBlob(data, has)
		if !ok {
			return unknown()
		}
		return &AudioItem{Data: d, URI: u, MIMEType: m}, true, nil

	case ContentTypeVideo:
		d, u, m, ok := decodeBlob(data, has)
		if !ok {
			return unknown()
		}
		return &VideoItem{Data: d, URI: u, MIMEType: m}, true, nil

	case ContentTypeDocument:
		d, u, m, ok := decodeBlob(data, has)
		if !ok {
			return unknown()
		}
		return &DocumentItem{Data: d, URI: u, MIMEType: m}, true, nil

	case ContentTypeFunctionCall:
		var v struct {
			ID               string          `json:"id"`
			Name             string          `json:"name"`
			Args             json.RawMessage `json:"args"`
			ThoughtSignature string          `json:"thought_signature"`
		}
		if !has("name") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &FunctionCallItem{ID: v.ID, Name: v.Name, Args: v.Args, ThoughtSignature: v.ThoughtSignature}, true, nil

	case ContentTypeFunctionResult:
		// Current shape keys the payload under "result"; the legacy shape
		// used "response". Anything else is not coerced.
		var v struct {
			Name     string `json:"name"`
			CallID   string `json:"call_id"`
			Result   any    `json:"result"`
			Response any    `json:"response"`
		}
		if !has("call_id") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		result := v.Result
		switch {
		case has("result"):
		case has("response"):
			result = v.Response
		default:
			return unknown()
		}
		return &FunctionResultItem{Name: v.Name, CallID: v.CallID, Result: result}, true, nil

	case ContentTypeCodeExecutionCall:
		var v struct {
			ID       string `json:"id"`
			Language string `json:"language"`
			Code     string `json:"code"`
		}
		if !has("language", "code") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &CodeExecutionCallItem{ID: v.ID, Language: v.Language, Code: v.Code}, true, nil

	case ContentTypeCodeExecutionResult:
		var v struct {
			CallID  string `json:"call_id"`
			Outcome string `json:"outcome"`
			Output  string `json:"output"`
		}
		if !has("outcome", "output") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &CodeExecutionResultItem{CallID: v.CallID, Outcome: v.Outcome, Output: v.Output}, true, nil

	case ContentTypeGoogleSearchCall:
		var v struct {
			ID      string   `json:"id"`
			Queries []string `json:"queries"`
		}
		if !has("queries") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &GoogleSearchCallItem{ID: v.ID, Queries: v.Queries}, true, nil

	case ContentTypeGoogleSearchResult:
		var v struct {
			CallID  string `json:"call_id"`
			Results any    `json:"results"`
		}
		if !has("results") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &GoogleSearchResultItem{CallID: v.CallID, Results: v.Results}, true, nil

	case ContentTypeURLContextCall:
		var v struct {
			ID   string   `json:"id"`
			URLs []string `json:"urls"`
		}
		if !has("urls") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &URLContextCallItem{ID: v.ID, URLs: v.URLs}, true, nil

	case ContentTypeURLContextResult:
		var v struct {
			CallID  string `json:"call_id"`
			Results any    `json:"results"`
		}
		if !has("results") || json.Unmarshal(data, &v) != nil {
			return unknown()
		}
		return &URLContextResultItem{CallID: v.CallID, Results: v.Results}, true, nil

	default:
		return unknown()
	}
}

// decodeBlob validates the shared media layout: a mime type plus at least
// one of inline data or a URI.
func decodeBlob(data []byte, has func(...string) bool) (d, uri, mime string, ok bool) {
	var v struct {
		Data     string `json:"data"`
		URI      string `json:"uri"`
		MIMEType string `json:"mime_type"`
	}
	if !has("mime_type") || (!has("data") && !has("uri")) || json.Unmarshal(data, &v) != nil {
		return "", "", "", false
	}
	return v.Data, v.URI, v.MIMEType, true
}

// Contents is a typed slice enabling JSON marshal/unmarshal of polymorphic
// content arrays.
type Contents []ContentItem

// MarshalJSON serializes each item using its wire discriminant.
func (cs Contents) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(cs))
	for i, c := range cs {
		b, err := MarshalContentItem(c)
		if err != nil {
			return nil, fmt.Errorf("marshal content[%d]: %w", i, err)
		}
		items[i] = b
	}
	return json.Marshal(items)
}

// UnmarshalJSON deserializes a JSON array of content items, degrading
// unrecognized items to [UnknownItem].
func (cs *Contents) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: content list: %v", ErrDecode, err)
	}
	result := make([]ContentItem, len(raw))
	for i, r := range raw {
		c, err := UnmarshalContentItem(r)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		result[i] = c
	}
	*cs = result
	return nil
}
