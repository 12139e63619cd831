package messaging

import (
	"context"
	"sort"
	"time"

	"github.com/naveenhacks/KVISION/internal/metrics"
	"github.com/naveenhacks/KVISION/internal/models"
)

// ProjectForViewer rebuilds the viewer's conversation list from the persisted
// set. It is a pure projection, recomputed in full on every change
// notification, so it cannot drift from the store.
func (s *Service) ProjectForViewer(ctx context.Context, viewerID string, viewerRole models.Role) ([]models.ConversationView, error) {
	effective := EffectiveID(viewerID, viewerRole, s.inboxID)

	convos, err := s.store.ListForParticipant(ctx, effective)
	if err != nil {
		return nil, err
	}
	users, err := s.dir.Users(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.ConversationView, 0, len(convos))
	for i := range convos {
		c := &convos[i]
		counterpart, ok := byID[c.Counterpart(effective)]
		if !ok {
			// A counterpart that cannot be identified cannot be rendered.
			s.log.Warnw("dropping conversation with unresolvable counterpart",
				"conversation", c.Key, "counterpart", c.Counterpart(effective))
			metrics.DroppedProjections.Inc()
			continue
		}
		views = append(views, models.ConversationView{
			Key:         c.Key,
			Counterpart: counterpart,
			Messages:    c.Messages,
			UnreadCount: unreadCount(c.Messages, effective),
		})
	}

	// Most recent conversation first; conversations without messages last.
	sort.SliceStable(views, func(i, j int) bool {
		a, b := lastTimestamp(views[i].Messages), lastTimestamp(views[j].Messages)
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return views, nil
}

// TotalUnread sums unread counts across the viewer's conversations. Derived
// state only: it holds no counters of its own.
func (s *Service) TotalUnread(ctx context.Context, viewerID string, viewerRole models.Role) (int, error) {
	views, err := s.ProjectForViewer(ctx, viewerID, viewerRole)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, v := range views {
		total += v.UnreadCount
	}
	return total, nil
}

func unreadCount(msgs []models.Message, receiverID string) int {
	n := 0
	for _, m := range msgs {
		if m.ReceiverID == receiverID && m.Status != models.StatusRead {
			n++
		}
	}
	return n
}

func lastTimestamp(msgs []models.Message) *time.Time {
	if len(msgs) == 0 {
		return nil
	}
	return &msgs[len(msgs)-1].Timestamp
}
