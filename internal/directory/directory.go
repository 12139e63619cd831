// Package directory reads users from the platform's identity service. The
// messaging core consumes it read-only: ids, display names and roles.
package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/naveenhacks/KVISION/internal/models"
)

var ErrUnknownUser = errors.New("unknown user")

type Directory interface {
	// User resolves a single id, or returns ErrUnknownUser.
	User(ctx context.Context, id string) (models.User, error)
	// Users returns the full roster.
	Users(ctx context.Context) ([]models.User, error)
}

// Static serves a fixed roster. Used by tests and local development.
type Static struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewStatic(users ...models.User) *Static {
	s := &Static{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return s
}

func (s *Static) Add(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.users[u.ID] = u
}

func (s *Static) User(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUnknownUser
	}
	return u, nil
}

func (s *Static) Users(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out, nil
}

// WithAdminInbox layers the synthetic shared-inbox user over a directory, so
// counterpart resolution works for conversations held with the admin inbox.
func WithAdminInbox(d Directory, inbox models.User) Directory {
	return &inboxDirectory{Directory: d, inbox: inbox}
}

type inboxDirectory struct {
	Directory
	inbox models.User
}

func (d *inboxDirectory) User(ctx context.Context, id string) (models.User, error) {
	if id == d.inbox.ID {
		return d.inbox, nil
	}
	return d.Directory.User(ctx, id)
}

func (d *inboxDirectory) Users(ctx context.Context) ([]models.User, error) {
	users, err := d.Directory.Users(ctx)
	if err != nil {
		return nil, err
	}
	return append(users, d.inbox), nil
}
