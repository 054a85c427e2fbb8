package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Validate checks invariants that hold for every command.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if c.ModelRequestsPerSecond <= 0 {
		return fmt.Errorf("%w: model_requests_per_second=%v", ErrInvalidRateLimit, c.ModelRequestsPerSecond)
	}
	if c.Hub.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: hub.requests_per_second=%v", ErrInvalidRateLimit, c.Hub.RequestsPerSecond)
	}
	return nil
}

// ValidateServe checks the extra invariants of serve mode: the server
// cannot start without credentials for the model provider and the hub,
// or without an account to deploy under.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddr, c.Addr)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingAPIKey)
	}
	if strings.TrimSpace(c.Hub.Token) == "" {
		return fmt.Errorf("%w: set SITESMITH_HUB_TOKEN", ErrMissingHubToken)
	}
	if strings.TrimSpace(c.Hub.Owner) == "" {
		return fmt.Errorf("%w: set SITESMITH_HUB_OWNER", ErrMissingOwner)
	}
	return nil
}
