package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/directory"
	"github.com/naveenhacks/KVISION/internal/models"
	"github.com/naveenhacks/KVISION/internal/store"
)

func TestProjectionUnreadCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.SendMessage(ctx, "teacher01", models.RoleTeacher, "student01", text("hw"))
		require.NoError(t, err)
	}
	_, err := svc.SendMessage(ctx, "student01", models.RoleStudent, "teacher01", text("ok"))
	require.NoError(t, err)

	views, err := svc.ProjectForViewer(ctx, "student01", models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 3, views[0].UnreadCount, "only messages addressed to the viewer count")
	assert.Equal(t, "Mr. Thomas", views[0].Counterpart.DisplayName)

	teacherViews, err := svc.ProjectForViewer(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, teacherViews, 1)
	assert.Equal(t, 1, teacherViews[0].UnreadCount)
}

func TestProjectionSortedByLastMessage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "teacher01", models.RoleTeacher, "student01", text("older"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.SendMessage(ctx, "teacher01", models.RoleTeacher, "student02", text("newer"))
	require.NoError(t, err)

	views, err := svc.ProjectForViewer(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "student02", views[0].Counterpart.ID, "most recent conversation first")
	assert.Equal(t, "student01", views[1].Counterpart.ID)
}

func TestProjectionEmptyConversationSortsLast(t *testing.T) {
	st := store.NewMemoryStore()
	dir := directory.NewStatic(
		models.User{ID: "student01", DisplayName: "Asha", Role: models.RoleStudent},
		models.User{ID: "student02", DisplayName: "Binu", Role: models.RoleStudent},
		models.User{ID: "teacher01", DisplayName: "Mr. Thomas", Role: models.RoleTeacher},
	)
	svc := NewService(st, dir, nil, zap.NewNop().Sugar(), "")
	ctx := context.Background()

	// An empty conversation can exist after its last message is moderated away.
	msg, err := svc.SendMessage(ctx, "teacher01", models.RoleTeacher, "student01", text("gone soon"))
	require.NoError(t, err)
	emptyKey, _ := ConversationKey("teacher01", "student01")
	require.NoError(t, svc.DeleteMessage(ctx, emptyKey, msg.ID))

	_, err = svc.SendMessage(ctx, "teacher01", models.RoleTeacher, "student02", text("hello"))
	require.NoError(t, err)

	views, err := svc.ProjectForViewer(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "student02", views[0].Counterpart.ID)
	assert.Empty(t, views[1].Messages, "conversation with no messages sorts last")
}

func TestProjectionExcludesUnresolvableCounterpart(t *testing.T) {
	st := store.NewMemoryStore()
	dir := directory.NewStatic(
		models.User{ID: "teacher01", DisplayName: "Mr. Thomas", Role: models.RoleTeacher},
	)
	svc := NewService(st, dir, nil, zap.NewNop().Sugar(), "")
	ctx := context.Background()

	// ghost99 is not in the directory (e.g. a deleted account).
	_, err := svc.SendMessage(ctx, "ghost99", models.RoleStudent, "teacher01", text("boo"))
	require.NoError(t, err)

	views, err := svc.ProjectForViewer(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	assert.Empty(t, views, "a counterpart that cannot be identified cannot be rendered")
}

func TestTotalUnreadSumsAcrossConversations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "student01", models.RoleStudent, "teacher01", text("q1"))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "student02", models.RoleStudent, "teacher01", text("q2"))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "student02", models.RoleStudent, "teacher01", text("q3"))
	require.NoError(t, err)

	total, err := svc.TotalUnread(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	key, _ := ConversationKey("teacher01", "student02")
	require.NoError(t, svc.MarkConversationAsRead(ctx, key, "teacher01", models.RoleTeacher))

	total, err = svc.TotalUnread(ctx, "teacher01", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
