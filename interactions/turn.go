// Copyright (c) Microsoft. All rights reserved.

package interactions

import "strings"

// Role identifies the author of a [Turn].
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one conversational turn: a role plus its ordered content.
type Turn struct {
	Role    Role     `json:"role"`
	Content Contents `json:"content"`
}

// Text returns the concatenated text of all [TextItem] content in this turn.
func (t *Turn) Text() string {
	var b strings.Builder
	for _, c := range t.Content {
		if tc, ok := c.(*TextItem); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// NewUserTurn creates a user-role [Turn] from a text string.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: Contents{&TextItem{Text: text}}}
}

// NewModelTurn creates a model-role [Turn] from a text string.
func NewModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Content: Contents{&TextItem{Text: text}}}
}
