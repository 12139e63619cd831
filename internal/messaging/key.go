package messaging

import (
	"fmt"
	"strings"

	"github.com/naveenhacks/KVISION/internal/models"
)

// DefaultAdminInboxID is the virtual participant standing in for the shared
// admin inbox. Every admin account reads and writes the same conversations,
// so the inbox id, not the personal admin id, goes into conversation keys.
const DefaultAdminInboxID = "kvision_admin_inbox"

// keyDelimiter joins the two participant ids into a conversation key. User
// ids must never contain it; ConversationKey rejects ids that do.
const keyDelimiter = "--"

// ConversationKey derives the canonical key for a participant pair. It is
// order independent: ConversationKey(a, b) == ConversationKey(b, a).
func ConversationKey(idA, idB string) (string, error) {
	if idA == "" || idB == "" {
		return "", ErrEmptyParticipant
	}
	if idA == idB {
		return "", ErrSelfConversation
	}
	if strings.Contains(idA, keyDelimiter) || strings.Contains(idB, keyDelimiter) {
		return "", fmt.Errorf("%w: id contains %q", ErrInvalidParticipant, keyDelimiter)
	}
	if idA < idB {
		return idA + keyDelimiter + idB, nil
	}
	return idB + keyDelimiter + idA, nil
}

// SplitKey returns the two participant ids encoded in a conversation key.
func SplitKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, keyDelimiter)
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// EffectiveID resolves the id a user acts as: admins act as the shared inbox,
// everyone else as themselves. Applied at every entry point so admin fan-in
// never needs per-call special-casing.
func EffectiveID(userID string, role models.Role, adminInboxID string) string {
	if role == models.RoleAdmin {
		return adminInboxID
	}
	return userID
}
