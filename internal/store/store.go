// Package store is the persistence substrate for conversations: a durable
// keyed document store with atomic message append and live change
// notifications. Everything above it treats persistence as opaque.
package store

import (
	"context"
	"errors"

	"github.com/naveenhacks/KVISION/internal/models"
)

var ErrNotFound = errors.New("conversation not found")

// Store is implemented by MongoStore (production) and MemoryStore (tests,
// local development).
//
// AppendMessage must be an atomic add-to-collection, never a whole-document
// overwrite: two participants appending concurrently must both survive.
type Store interface {
	// Get returns the conversation for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*models.Conversation, error)

	// AppendMessage appends msg to the conversation for key, creating the
	// conversation with the given participants if it does not exist yet.
	AppendMessage(ctx context.Context, key string, participants []string, msg models.Message) error

	// RemoveMessage removes the message with messageID from the conversation.
	// It reports whether anything was removed; a missing conversation or
	// message is not an error.
	RemoveMessage(ctx context.Context, key, messageID string) (bool, error)

	// MarkRead transitions every message addressed to readerID that is not
	// yet read to read, and returns the number of writes performed. Calling
	// it again immediately returns 0: the update compares before writing.
	MarkRead(ctx context.Context, key, readerID string) (int64, error)

	// ListForParticipant returns every conversation whose participants set
	// contains id, most recently updated first.
	ListForParticipant(ctx context.Context, id string) ([]models.Conversation, error)

	// Subscribe registers onChange to fire whenever a conversation involving
	// participantID changes. The returned function cancels the subscription.
	Subscribe(ctx context.Context, participantID string, onChange func()) (func(), error)
}
