package messaging

import (
	"context"

	"github.com/naveenhacks/KVISION/internal/models"
)

// FeedUpdate is pushed to a live subscriber: the full recomputed projection
// plus the badge total, never an incremental patch.
type FeedUpdate struct {
	Conversations []models.ConversationView `json:"conversations"`
	TotalUnread   int                       `json:"total_unread"`
}

// Watch delivers a FeedUpdate immediately and again on every store change
// involving the viewer's effective id. The returned function cancels the
// subscription. fn is called from the store's notification context; it must
// not block.
func (s *Service) Watch(ctx context.Context, viewerID string, viewerRole models.Role, fn func(FeedUpdate)) (func(), error) {
	effective := EffectiveID(viewerID, viewerRole, s.inboxID)

	push := func() {
		views, err := s.ProjectForViewer(ctx, viewerID, viewerRole)
		if err != nil {
			s.log.Errorw("projection rebuild failed", "viewer", effective, "err", err)
			return
		}
		total := 0
		for _, v := range views {
			total += v.UnreadCount
		}
		fn(FeedUpdate{Conversations: views, TotalUnread: total})
	}

	cancel, err := s.store.Subscribe(ctx, effective, push)
	if err != nil {
		return nil, err
	}
	push()
	return cancel, nil
}
