package models

import (
	"github.com/google/uuid"
)

// ConversationState carries the per-query state for one agent exchange.
// It is never persisted; the next query supersedes it entirely.
type ConversationState struct {
	ConversationID string
	Query          string
	Context        map[string]string
}

// NewConversationState starts a fresh conversation for a single query.
func NewConversationState(query string) *ConversationState {
	return &ConversationState{
		ConversationID: uuid.New().String(),
		Query:          query,
	}
}

// AddContext attaches a context value, such as captured screen text, that is
// sent along with the query when present.
func (c *ConversationState) AddContext(key, value string) {
	if value == "" {
		return
	}
	if c.Context == nil {
		c.Context = make(map[string]string)
	}
	c.Context[key] = value
}
