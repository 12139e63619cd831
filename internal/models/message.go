package models

import "time"

// Status is the delivery state of a message. Transitions are forward only:
// sent -> delivered -> read. Read never regresses.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Rank orders statuses for monotonicity checks; a transition is legal only
// when the rank does not decrease.
func (s Status) Rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

const (
	ContentText = "text"
	ContentFile = "file"
)

// Attachment describes an uploaded file referenced by a message. The blob
// itself lives in the media service; Locator is its storage reference.
type Attachment struct {
	Name    string `bson:"name" json:"name"`
	Type    string `bson:"type" json:"type"`
	Size    int64  `bson:"size" json:"size"`
	Locator string `bson:"locator" json:"locator"`
}

// Content is either text (Type == "text", Value set) or a file attachment
// (Type == "file", File set).
type Content struct {
	Type  string      `bson:"type" json:"type"`
	Value string      `bson:"value,omitempty" json:"value,omitempty"`
	File  *Attachment `bson:"file,omitempty" json:"file,omitempty"`
}

type Message struct {
	ID         string    `bson:"id" json:"id"`
	Content    Content   `bson:"content" json:"content"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Status     Status    `bson:"status" json:"status"`
}
