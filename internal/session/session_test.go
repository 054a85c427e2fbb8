package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/session"
)

func TestCreateAppendHistory(t *testing.T) {
	t.Parallel()

	store := session.NewStore(0)
	id := store.Create()

	require.NoError(t, store.Append(id,
		session.Message{Role: session.RoleUser, Content: "make a page"},
		session.Message{Role: session.RoleAssistant, Content: "done"},
	))

	history, err := store.History(id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.False(t, history[0].At.IsZero())
}

func TestHistoryIsACopy(t *testing.T) {
	t.Parallel()

	store := session.NewStore(0)
	id := store.Create()
	require.NoError(t, store.Append(id, session.Message{Role: session.RoleUser, Content: "one"}))

	history, err := store.History(id)
	require.NoError(t, err)
	history[0].Content = "mutated"

	fresh, err := store.History(id)
	require.NoError(t, err)
	assert.Equal(t, "one", fresh[0].Content)
}

func TestAppendUnknownSession(t *testing.T) {
	t.Parallel()

	store := session.NewStore(0)
	err := store.Append("missing", session.Message{Role: session.RoleUser, Content: "x"})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestHistoryBound(t *testing.T) {
	t.Parallel()

	store := session.NewStore(3)
	id := store.Create()
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Append(id, session.Message{Role: session.RoleUser, Content: content}))
	}

	history, err := store.History(id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "c", history[0].Content)
	assert.Equal(t, "e", history[2].Content)
}

func TestEnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	store := session.NewStore(0)
	store.Ensure("client-chosen")
	require.NoError(t, store.Append("client-chosen", session.Message{Role: session.RoleUser, Content: "hi"}))
	store.Ensure("client-chosen")

	history, err := store.History("client-chosen")
	require.NoError(t, err)
	assert.Len(t, history, 1, "re-ensuring must not reset history")
}

func TestExpireIdle(t *testing.T) {
	t.Parallel()

	store := session.NewStore(0)
	stale := store.Create()
	time.Sleep(10 * time.Millisecond)
	fresh := store.Create()

	dropped := store.ExpireIdle(5 * time.Millisecond)
	assert.Contains(t, dropped, stale)
	assert.False(t, store.Exists(stale))
	assert.True(t, store.Exists(fresh))
}
