package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenhacks/KVISION/internal/models"
)

func msg(sender, receiver, body string) models.Message {
	return models.Message{
		ID:         uuid.NewString(),
		Content:    models.Content{Type: models.ContentText, Value: body},
		Timestamp:  time.Now().UTC(),
		SenderID:   sender,
		ReceiverID: receiver,
		Status:     models.StatusSent,
	}
}

func TestMemoryStoreAppendAndGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.Get(ctx, "a--b")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", "hi")))
	conv, err := st.Get(ctx, "a--b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, conv.Participants)
	assert.Len(t, conv.Messages, 1)
}

func TestMemoryStoreConcurrentAppendsAllSurvive(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	// Both participants typing at once: every append must survive, which is
	// the whole point of an atomic add-to-collection primitive.
	const perSide = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			_ = st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", fmt.Sprintf("a%d", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSide; i++ {
			_ = st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("b", "a", fmt.Sprintf("b%d", i)))
		}
	}()
	wg.Wait()

	conv, err := st.Get(ctx, "a--b")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2*perSide)
}

func TestMemoryStoreRemoveMessage(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	m1 := msg("a", "b", "one")
	m2 := msg("a", "b", "two")
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, m1))
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, m2))

	removed, err := st.RemoveMessage(ctx, "a--b", m1.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	conv, _ := st.Get(ctx, "a--b")
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, m2.ID, conv.Messages[0].ID)

	removed, err = st.RemoveMessage(ctx, "a--b", m1.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports nothing removed")

	removed, err = st.RemoveMessage(ctx, "x--y", "nope")
	require.NoError(t, err)
	assert.False(t, removed, "missing conversation is not an error")
}

func TestMemoryStoreMarkReadComparesBeforeWrite(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", "1")))
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", "2")))
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("b", "a", "3")))

	changed, err := st.MarkRead(ctx, "a--b", "b")
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed, "only b's incoming messages transition")

	changed, err = st.MarkRead(ctx, "a--b", "b")
	require.NoError(t, err)
	assert.Zero(t, changed, "repeat call writes nothing")

	conv, _ := st.Get(ctx, "a--b")
	assert.Equal(t, models.StatusRead, conv.Messages[0].Status)
	assert.Equal(t, models.StatusRead, conv.Messages[1].Status)
	assert.Equal(t, models.StatusSent, conv.Messages[2].Status)

	changed, err = st.MarkRead(ctx, "x--y", "b")
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMemoryStoreListForParticipant(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", "x")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, st.AppendMessage(ctx, "a--c", []string{"a", "c"}, msg("a", "c", "y")))

	convos, err := st.ListForParticipant(ctx, "a")
	require.NoError(t, err)
	require.Len(t, convos, 2)
	assert.Equal(t, "a--c", convos[0].Key, "most recently updated first")

	convos, err = st.ListForParticipant(ctx, "b")
	require.NoError(t, err)
	require.Len(t, convos, 1)

	convos, err = st.ListForParticipant(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, convos)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	var aFired, cFired int
	cancelA, err := st.Subscribe(ctx, "a", func() { aFired++ })
	require.NoError(t, err)
	_, err = st.Subscribe(ctx, "c", func() { cFired++ })
	require.NoError(t, err)

	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("a", "b", "x")))
	assert.Equal(t, 1, aFired)
	assert.Zero(t, cFired, "subscribers only hear about their own conversations")

	_, err = st.MarkRead(ctx, "a--b", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, aFired)

	// No notification when mark-read changes nothing.
	_, err = st.MarkRead(ctx, "a--b", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, aFired)

	cancelA()
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, msg("b", "a", "y")))
	assert.Equal(t, 2, aFired, "no notifications after unsubscribe")
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	m := msg("a", "b", "orig")
	require.NoError(t, st.AppendMessage(ctx, "a--b", []string{"a", "b"}, m))

	conv, err := st.Get(ctx, "a--b")
	require.NoError(t, err)
	conv.Messages[0].Status = models.StatusRead

	again, err := st.Get(ctx, "a--b")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, again.Messages[0].Status, "callers must not mutate stored state")
}
