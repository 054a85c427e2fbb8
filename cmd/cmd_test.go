package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"], "serve command missing")
	assert.True(t, names["version"], "version command missing")
}

func TestRootHelpRuns(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	require.NoError(t, rootCmd.Execute())
}
