package messaging

import "errors"

// Validation errors are rejected before any store interaction; the caller
// never observes a partial side effect.
var (
	ErrEmptyParticipant   = errors.New("participant id required")
	ErrInvalidParticipant = errors.New("invalid participant id")
	ErrSelfConversation   = errors.New("cannot message yourself")
	ErrEmptyContent       = errors.New("message content is empty")
	ErrInvalidContent     = errors.New("invalid message content")
)
