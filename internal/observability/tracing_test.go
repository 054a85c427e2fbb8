package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDefaultEndpoint(t *testing.T) {
	cfg := Config{
		Environment: "test",
		ServiceName: "test-service",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}

func TestSetupCustomEndpoint(t *testing.T) {
	cfg := Config{
		Endpoint:    "collector:4318",
		Environment: "staging",
		ServiceName: "custom-service",
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
}
