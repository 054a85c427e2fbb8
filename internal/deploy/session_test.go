package deploy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/space"
)

func TestSessionStorePutAndLatest(t *testing.T) {
	t.Parallel()

	store := deploy.NewSessionStore()
	store.Put("s1", deploy.Record{
		Target:    space.Target{Owner: "demo", Name: "pet-shop-1234abcd"},
		Framework: framework.StaticHTML,
	})

	rec, ok := store.Latest("s1", framework.StaticHTML)
	require.True(t, ok)
	assert.Equal(t, "demo/pet-shop-1234abcd", rec.Target.ID())
	assert.False(t, rec.Timestamp.IsZero())

	_, ok = store.Latest("s1", framework.Gradio)
	assert.False(t, ok, "other frameworks must not inherit the record")

	_, ok = store.Latest("s2", framework.StaticHTML)
	assert.False(t, ok, "other sessions must not inherit the record")
}

func TestSessionStoreOneLiveEntryPerFramework(t *testing.T) {
	t.Parallel()

	store := deploy.NewSessionStore()
	first := space.Target{Owner: "demo", Name: "first-aaaa1111"}
	second := space.Target{Owner: "demo", Name: "second-bbbb2222"}

	store.Put("s1", deploy.Record{Target: first, Framework: framework.Gradio})
	store.Put("s1", deploy.Record{Target: second, Framework: framework.Gradio})

	rec, ok := store.Latest("s1", framework.Gradio)
	require.True(t, ok)
	assert.Equal(t, second, rec.Target)
	assert.Len(t, store.All("s1"), 1)
}

func TestSessionStoreDedupesByTarget(t *testing.T) {
	t.Parallel()

	store := deploy.NewSessionStore()
	target := space.Target{Owner: "demo", Name: "shared-cccc3333"}

	store.Put("s1", deploy.Record{Target: target, Framework: framework.StaticHTML, Timestamp: time.Now()})
	store.Put("s1", deploy.Record{Target: target, Framework: framework.TransformersJS, Timestamp: time.Now()})

	records := store.All("s1")
	require.Len(t, records, 1)
	assert.Equal(t, framework.TransformersJS, records[0].Framework)
}

func TestSessionStoreForget(t *testing.T) {
	t.Parallel()

	store := deploy.NewSessionStore()
	store.Put("s1", deploy.Record{
		Target:    space.Target{Owner: "demo", Name: "gone-dddd4444"},
		Framework: framework.StaticHTML,
	})
	store.Forget("s1")

	_, ok := store.Latest("s1", framework.StaticHTML)
	assert.False(t, ok)
	assert.Empty(t, store.All("s1"))
}
