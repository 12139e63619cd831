package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/naveenhacks/KVISION/internal/models"
)

// MemoryStore keeps conversations in a mutex-guarded map and fans change
// notifications out to subscribers. It backs tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]*models.Conversation
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	participant string
	onChange    func()
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*models.Conversation),
		subs: make(map[int]*subscriber),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(doc), nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, key string, participants []string, msg models.Message) error {
	s.mu.Lock()
	now := time.Now().UTC()
	doc, ok := s.docs[key]
	if !ok {
		doc = &models.Conversation{
			Key:          key,
			Participants: append([]string(nil), participants...),
			CreatedAt:    now,
		}
		s.docs[key] = doc
	}
	doc.Messages = append(doc.Messages, msg)
	doc.UpdatedAt = now
	notify := s.pending(doc.Participants)
	s.mu.Unlock()

	fire(notify)
	return nil
}

func (s *MemoryStore) RemoveMessage(ctx context.Context, key, messageID string) (bool, error) {
	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	removed := false
	for i, m := range doc.Messages {
		if m.ID == messageID {
			doc.Messages = append(doc.Messages[:i], doc.Messages[i+1:]...)
			doc.UpdatedAt = time.Now().UTC()
			removed = true
			break
		}
	}
	var notify []func()
	if removed {
		notify = s.pending(doc.Participants)
	}
	s.mu.Unlock()

	fire(notify)
	return removed, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, key, readerID string) (int64, error) {
	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return 0, nil
	}
	var changed int64
	for i := range doc.Messages {
		m := &doc.Messages[i]
		if m.ReceiverID == readerID && m.Status != models.StatusRead {
			m.Status = models.StatusRead
			changed++
		}
	}
	var notify []func()
	if changed > 0 {
		doc.UpdatedAt = time.Now().UTC()
		notify = s.pending(doc.Participants)
	}
	s.mu.Unlock()

	fire(notify)
	return changed, nil
}

func (s *MemoryStore) ListForParticipant(ctx context.Context, id string) ([]models.Conversation, error) {
	s.mu.RLock()
	out := make([]models.Conversation, 0, len(s.docs))
	for _, doc := range s.docs {
		for _, p := range doc.Participants {
			if p == id {
				out = append(out, *copyConversation(doc))
				break
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, participantID string, onChange func()) (func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = &subscriber{participant: participantID, onChange: onChange}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// pending collects the callbacks to fire for a change touching participants.
// Called with the lock held; callbacks run after it is released so a
// subscriber can call back into the store.
func (s *MemoryStore) pending(participants []string) []func() {
	var out []func()
	for _, sub := range s.subs {
		for _, p := range participants {
			if sub.participant == p {
				out = append(out, sub.onChange)
				break
			}
		}
	}
	return out
}

func fire(callbacks []func()) {
	for _, fn := range callbacks {
		fn()
	}
}

func copyConversation(doc *models.Conversation) *models.Conversation {
	out := *doc
	out.Participants = append([]string(nil), doc.Participants...)
	out.Messages = append([]models.Message(nil), doc.Messages...)
	return &out
}
