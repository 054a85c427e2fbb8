package deploy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/space"
)

func TestResolveTargetExplicitWins(t *testing.T) {
	t.Parallel()

	sessions := deploy.NewSessionStore()
	sessions.Put("s1", deploy.Record{
		Target:    space.Target{Owner: "demo", Name: "older-aaaa1111"},
		Framework: framework.StaticHTML,
	})

	res, err := deploy.ResolveTarget(deploy.ResolveInput{
		ExplicitID: "demo/explicit-site",
		History: []deploy.Message{
			{Role: deploy.RoleAssistant, Content: "Deployed to https://huggingface.co/spaces/demo/from-history"},
		},
	}, sessions, "s1", framework.StaticHTML)
	require.NoError(t, err)

	assert.Equal(t, "demo/explicit-site", res.Target.ID())
	assert.True(t, res.IsUpdate)
	assert.Equal(t, deploy.SourceExplicit, res.Source)
}

func TestResolveTargetInvalidExplicit(t *testing.T) {
	t.Parallel()

	_, err := deploy.ResolveTarget(deploy.ResolveInput{ExplicitID: "not-an-id"},
		nil, "s1", framework.StaticHTML)
	require.ErrorIs(t, err, space.ErrInvalidTarget)
}

func TestResolveTargetFromAssistantHistory(t *testing.T) {
	t.Parallel()

	history := []deploy.Message{
		{Role: deploy.RoleUser, Content: "make me a pet shop page"},
		{Role: deploy.RoleAssistant, Content: "Created and deployed to https://huggingface.co/spaces/demo/pet-shop-1234abcd"},
		{Role: deploy.RoleUser, Content: "make the header blue"},
	}

	res, err := deploy.ResolveTarget(deploy.ResolveInput{History: history},
		nil, "s1", framework.StaticHTML)
	require.NoError(t, err)

	assert.Equal(t, "demo/pet-shop-1234abcd", res.Target.ID())
	assert.True(t, res.IsUpdate)
	assert.Equal(t, deploy.SourceHistory, res.Source)
}

func TestResolveTargetNewestHistoryWins(t *testing.T) {
	t.Parallel()

	history := []deploy.Message{
		{Role: deploy.RoleAssistant, Content: "Created and deployed to https://huggingface.co/spaces/demo/old-1111aaaa"},
		{Role: deploy.RoleAssistant, Content: "Created and deployed to https://huggingface.co/spaces/demo/new-2222bbbb"},
	}

	res, err := deploy.ResolveTarget(deploy.ResolveInput{History: history},
		nil, "s1", framework.StaticHTML)
	require.NoError(t, err)
	assert.Equal(t, "demo/new-2222bbbb", res.Target.ID())
}

func TestResolveTargetUserReferenceNeedsOwnerHint(t *testing.T) {
	t.Parallel()

	history := []deploy.Message{
		{Role: deploy.RoleUser, Content: "please keep improving https://huggingface.co/spaces/someone-else/their-app"},
	}

	// Without a matching owner hint the pasted link is ignored and a
	// fresh target is minted instead.
	res, err := deploy.ResolveTarget(deploy.ResolveInput{
		History:      history,
		OwnerHint:    "demo",
		DefaultOwner: "demo",
		NameSeed:     "improve their app",
	}, nil, "s1", framework.StaticHTML)
	require.NoError(t, err)
	assert.Equal(t, deploy.SourceFresh, res.Source)
	assert.False(t, res.IsUpdate)

	// With a matching owner it becomes the update target.
	history[0].Content = "please keep improving https://huggingface.co/spaces/demo/my-app"
	res, err = deploy.ResolveTarget(deploy.ResolveInput{
		History:   history,
		OwnerHint: "demo",
	}, nil, "s1", framework.StaticHTML)
	require.NoError(t, err)
	assert.Equal(t, "demo/my-app", res.Target.ID())
	assert.Equal(t, deploy.SourceHistory, res.Source)
}

func TestResolveTargetAssistantChatterWithoutMarkerIgnored(t *testing.T) {
	t.Parallel()

	history := []deploy.Message{
		{Role: deploy.RoleAssistant, Content: "you could look at https://huggingface.co/spaces/demo/some-example for inspiration"},
	}

	res, err := deploy.ResolveTarget(deploy.ResolveInput{
		History:      history,
		DefaultOwner: "demo",
		NameSeed:     "a page",
	}, nil, "s1", framework.StaticHTML)
	require.NoError(t, err)
	assert.Equal(t, deploy.SourceFresh, res.Source)
}

func TestResolveTargetFallsBackToSessionRecord(t *testing.T) {
	t.Parallel()

	sessions := deploy.NewSessionStore()
	sessions.Put("s1", deploy.Record{
		Target:    space.Target{Owner: "demo", Name: "recorded-3333cccc"},
		Framework: framework.Gradio,
	})

	res, err := deploy.ResolveTarget(deploy.ResolveInput{DefaultOwner: "demo"},
		sessions, "s1", framework.Gradio)
	require.NoError(t, err)
	assert.Equal(t, "demo/recorded-3333cccc", res.Target.ID())
	assert.True(t, res.IsUpdate)
	assert.Equal(t, deploy.SourceSession, res.Source)
}

func TestResolveTargetMintsFresh(t *testing.T) {
	t.Parallel()

	res, err := deploy.ResolveTarget(deploy.ResolveInput{
		DefaultOwner: "demo",
		NameSeed:     "A Pet Shop Landing Page!",
	}, deploy.NewSessionStore(), "s1", framework.StaticHTML)
	require.NoError(t, err)

	assert.False(t, res.IsUpdate)
	assert.Equal(t, "demo", res.Target.Owner)
	assert.Regexp(t, `^a-pet-shop-landing-page-[0-9a-f]{8}$`, res.Target.Name)
}
