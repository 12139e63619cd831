// Package messaging is the conversation core: key derivation, message
// delivery and read-state transitions, and the per-viewer projection that
// dashboards render.
package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/directory"
	"github.com/naveenhacks/KVISION/internal/events"
	"github.com/naveenhacks/KVISION/internal/metrics"
	"github.com/naveenhacks/KVISION/internal/models"
	"github.com/naveenhacks/KVISION/internal/store"
)

type Service struct {
	store   store.Store
	dir     directory.Directory
	pub     *events.Publisher
	log     *zap.SugaredLogger
	inboxID string
}

// NewService wires the delivery engine. pub may be nil when event fan-out is
// disabled (tests, local runs without a broker).
func NewService(st store.Store, dir directory.Directory, pub *events.Publisher, log *zap.SugaredLogger, inboxID string) *Service {
	if inboxID == "" {
		inboxID = DefaultAdminInboxID
	}
	return &Service{store: st, dir: dir, pub: pub, log: log, inboxID: inboxID}
}

func (s *Service) AdminInboxID() string { return s.inboxID }

// SendMessage validates, resolves the conversation key and appends a fresh
// message with status sent. Store failures propagate to the caller; nothing
// is retried here so the UI can offer a manual retry.
func (s *Service) SendMessage(ctx context.Context, senderID string, senderRole models.Role, receiverID string, content models.Content) (*models.Message, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	sender := EffectiveID(senderID, senderRole, s.inboxID)
	key, err := ConversationKey(sender, receiverID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		Content:    content,
		Timestamp:  time.Now().UTC(),
		SenderID:   sender,
		ReceiverID: receiverID,
		Status:     models.StatusSent,
	}
	// Participants in key order, so the stored pair is canonical no matter
	// which side creates the conversation.
	a, b, _ := SplitKey(key)
	if err := s.store.AppendMessage(ctx, key, []string{a, b}, msg); err != nil {
		return nil, err
	}

	metrics.MessagesSent.Inc()
	s.publish(ctx, events.Event{Type: events.TypeMessageCreated, ConversationKey: key, MessageID: msg.ID, ActorID: sender})
	return &msg, nil
}

// DeleteMessage removes one message permanently. Deleting an id that is
// already gone is a no-op by design (the desired end state holds), but it is
// logged and counted rather than reported as a fresh deletion.
func (s *Service) DeleteMessage(ctx context.Context, conversationKey, messageID string) error {
	removed, err := s.store.RemoveMessage(ctx, conversationKey, messageID)
	if err != nil {
		return err
	}
	if !removed {
		s.log.Infow("delete no-op: message not found", "conversation", conversationKey, "message", messageID)
		metrics.DeleteNoops.Inc()
		return nil
	}
	metrics.MessagesDeleted.Inc()
	s.publish(ctx, events.Event{Type: events.TypeMessageDeleted, ConversationKey: conversationKey, MessageID: messageID})
	return nil
}

// MarkConversationAsRead transitions every message addressed to the reader's
// effective id to read. Idempotent: the store compares before writing, so a
// repeat call performs no writes. A missing conversation is a benign no-op.
func (s *Service) MarkConversationAsRead(ctx context.Context, conversationKey, readerID string, readerRole models.Role) error {
	reader := EffectiveID(readerID, readerRole, s.inboxID)
	changed, err := s.store.MarkRead(ctx, conversationKey, reader)
	if err != nil {
		return err
	}
	if changed > 0 {
		metrics.ConversationsRead.Inc()
		s.publish(ctx, events.Event{Type: events.TypeConversationRead, ConversationKey: conversationKey, ActorID: reader})
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.pub != nil {
		s.pub.Publish(ctx, ev)
	}
}

func validateContent(c models.Content) error {
	switch c.Type {
	case models.ContentText:
		if strings.TrimSpace(c.Value) == "" {
			return ErrEmptyContent
		}
	case models.ContentFile:
		if c.File == nil || c.File.Name == "" || c.File.Locator == "" || c.File.Size < 0 {
			return ErrInvalidContent
		}
	default:
		return ErrInvalidContent
	}
	return nil
}
