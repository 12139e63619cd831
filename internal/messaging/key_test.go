package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenhacks/KVISION/internal/models"
)

func TestConversationKeySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"student01", "teacher01"},
		{"a", "b"},
		{"zz", "aa"},
		{"student01", DefaultAdminInboxID},
	}
	for _, p := range pairs {
		k1, err := ConversationKey(p[0], p[1])
		require.NoError(t, err)
		k2, err := ConversationKey(p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, k1, k2, "key must be order independent for %v", p)
	}
}

func TestConversationKeyDeterministic(t *testing.T) {
	k1, err := ConversationKey("student01", "teacher01")
	require.NoError(t, err)
	k2, err := ConversationKey("student01", "teacher01")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Equal(t, "student01--teacher01", k1)
}

func TestConversationKeyRejectsSelf(t *testing.T) {
	_, err := ConversationKey("student01", "student01")
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestConversationKeyRejectsEmpty(t *testing.T) {
	_, err := ConversationKey("", "teacher01")
	assert.ErrorIs(t, err, ErrEmptyParticipant)
	_, err = ConversationKey("student01", "")
	assert.ErrorIs(t, err, ErrEmptyParticipant)
}

func TestConversationKeyRejectsDelimiter(t *testing.T) {
	_, err := ConversationKey("stu--dent", "teacher01")
	assert.ErrorIs(t, err, ErrInvalidParticipant)
}

func TestSplitKey(t *testing.T) {
	key, err := ConversationKey("teacher01", "student01")
	require.NoError(t, err)
	a, b, ok := SplitKey(key)
	require.True(t, ok)
	assert.Equal(t, "student01", a)
	assert.Equal(t, "teacher01", b)

	_, _, ok = SplitKey("garbage")
	assert.False(t, ok)
}

func TestEffectiveID(t *testing.T) {
	inbox := DefaultAdminInboxID
	assert.Equal(t, inbox, EffectiveID("admin01", models.RoleAdmin, inbox))
	assert.Equal(t, inbox, EffectiveID("admin02", models.RoleAdmin, inbox))
	assert.Equal(t, "teacher01", EffectiveID("teacher01", models.RoleTeacher, inbox))
	assert.Equal(t, "student01", EffectiveID("student01", models.RoleStudent, inbox))
}
