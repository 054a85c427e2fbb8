package docs

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWriteContendedLockError(t *testing.T) {
	t.Parallel()

	c := newCache(t.TempDir(), time.Hour)
	path, err := c.path("gradio")
	require.NoError(t, err)

	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = holder.Unlock() }()

	ctx, cancel := context.WithTimeout(t.Context(), 120*time.Millisecond)
	defer cancel()

	err = c.Write(ctx, "gradio", "cached docs")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "%!w", "lock failure must carry a real error message")
}

func TestCacheReadContendedLockError(t *testing.T) {
	t.Parallel()

	c := newCache(t.TempDir(), time.Hour)
	require.NoError(t, c.Write(t.Context(), "streamlit", "cached docs"))

	path, err := c.path("streamlit")
	require.NoError(t, err)

	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = holder.Unlock() }()

	ctx, cancel := context.WithTimeout(t.Context(), 120*time.Millisecond)
	defer cancel()

	_, ok, err := c.Read(ctx, "streamlit", false)
	assert.False(t, ok)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "%!w", "lock failure must carry a real error message")
}
