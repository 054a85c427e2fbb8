package space_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/space"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()

	target, err := space.ParseTarget("alice/demo-app")
	require.NoError(t, err)
	assert.Equal(t, "alice", target.Owner)
	assert.Equal(t, "demo-app", target.Name)
	assert.Equal(t, "alice/demo-app", target.ID())
}

func TestParseTarget_Invalid(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "noslash", "a/b/c", "/name", "owner/"} {
		_, err := space.ParseTarget(id)
		assert.ErrorIs(t, err, space.ErrInvalidTarget, "id %q", id)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Build me a Space Invaders game!", "build-me-a-space-invaders-game"},
		{"  --hello--  ", "hello"},
		{"CamelCase 123", "camelcase-123"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, space.Slugify(tt.in), "input %q", tt.in)
	}
}

func TestMintName(t *testing.T) {
	t.Parallel()

	name := space.MintName("Build me a space invaders game with power-ups and levels")
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?-[0-9a-f]{8}$`), name)

	// Two mints never collide.
	assert.NotEqual(t, name, space.MintName("Build me a space invaders game with power-ups and levels"))
}

func TestMintName_EmptyPrompt(t *testing.T) {
	t.Parallel()

	name := space.MintName("!!!")
	assert.Regexp(t, regexp.MustCompile(`^space-[0-9a-f]{8}$`), name)
}
