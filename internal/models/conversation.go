package models

import "time"

// Conversation is the persisted document: exactly two participants and their
// append-only message history. Key is derived from the participant pair, so
// a pair has at most one conversation.
type Conversation struct {
	Key          string    `bson:"_id" json:"key"`
	Participants []string  `bson:"participants" json:"participants"`
	Messages     []Message `bson:"messages" json:"messages"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// LastMessage returns the newest message, or nil for an empty conversation.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Counterpart returns the participant that is not id, or "" when id is not a
// participant.
func (c *Conversation) Counterpart(id string) string {
	for _, p := range c.Participants {
		if p != id {
			return p
		}
	}
	return ""
}

// ConversationView is the per-viewer projection served to dashboards. It is
// recomputed from the persisted set on every change, never stored.
type ConversationView struct {
	Key         string    `json:"key"`
	Counterpart User      `json:"counterpart"`
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unread_count"`
}
