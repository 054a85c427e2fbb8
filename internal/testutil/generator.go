package testutil

import (
	"context"
	"sync"

	"github.com/sitesmith/sitesmith/internal/llm"
)

// ScriptedGenerator is an llm.Generator that replays canned responses in
// order, streaming each response in fixed-size chunks first. After the
// script runs out it repeats the last response.
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	calls     int
	chunkSize int

	// Err, when set, is returned instead of generating.
	Err error
}

// NewScriptedGenerator creates a generator replaying responses.
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{responses: responses, chunkSize: 16}
}

// Calls reports how many generations ran.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *ScriptedGenerator) Generate(ctx context.Context, _ llm.Request, stream llm.StreamFunc) (string, error) {
	g.mu.Lock()
	if g.Err != nil {
		err := g.Err
		g.mu.Unlock()
		return "", err
	}
	idx := min(g.calls, len(g.responses)-1)
	g.calls++
	text := g.responses[idx]
	chunkSize := g.chunkSize
	g.mu.Unlock()

	if stream != nil {
		for start := 0; start < len(text); start += chunkSize {
			end := min(start+chunkSize, len(text))
			if err := stream(ctx, text[start:end]); err != nil {
				return "", err
			}
		}
	}
	return text, nil
}
