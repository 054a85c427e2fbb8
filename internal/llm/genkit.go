package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sitesmith/sitesmith/internal/log"
)

// GenkitGenerator is the production Generator, backed by a Genkit
// instance and whatever model plugin it was initialized with.
type GenkitGenerator struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      log.Logger
}

// GenkitConfig configures a GenkitGenerator.
type GenkitConfig struct {
	// ModelName is the provider-qualified model, e.g.
	// "googleai/gemini-2.5-flash".
	ModelName string

	// Temperature overrides the model default when positive.
	Temperature float32

	// RequestsPerSecond throttles provider calls. Zero disables
	// throttling.
	RequestsPerSecond float64

	Retry RetryConfig
}

// NewGenkitGenerator wraps an initialized Genkit instance.
func NewGenkitGenerator(g *genkit.Genkit, cfg GenkitConfig, logger log.Logger) *GenkitGenerator {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &GenkitGenerator{
		g:           g,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		limiter:     limiter,
		retry:       cfg.Retry,
		logger:      logger,
	}
}

// Generate runs one generation with streaming, retrying transient
// provider failures. A retry is only attempted while nothing has been
// streamed yet; once chunks reached the caller, replaying them from a
// second attempt would duplicate output, so the error surfaces instead.
func (p *GenkitGenerator) Generate(ctx context.Context, req Request, stream StreamFunc) (string, error) {
	messages := make([]*ai.Message, 0, len(req.History)+1)
	for _, msg := range req.History {
		role := ai.RoleUser
		if msg.Role == RoleAssistant {
			role = ai.RoleModel
		}
		messages = append(messages, &ai.Message{
			Role:    role,
			Content: []*ai.Part{ai.NewTextPart(msg.Content)},
		})
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(req.Prompt)))

	var lastErr error
	delay := p.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		streamed := false
		opts := []ai.GenerateOption{
			ai.WithModelName(p.modelName),
			ai.WithSystem(req.System),
			ai.WithMessages(messages...),
		}
		if p.temperature > 0 {
			opts = append(opts, ai.WithConfig(&genai.GenerateContentConfig{
				Temperature: genai.Ptr(p.temperature),
			}))
		}
		if stream != nil {
			opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
				text := chunk.Text()
				if text == "" {
					return nil
				}
				streamed = true
				return stream(ctx, text)
			}))
		}

		resp, err := genkit.Generate(ctx, p.g, opts...)
		if err == nil {
			text := resp.Text()
			if strings.TrimSpace(text) == "" {
				return "", ErrEmptyResponse
			}
			p.logger.Debug("generation complete",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
				"chars", len(text))
			return text, nil
		}

		lastErr = err
		if streamed || !retryableError(err) {
			return "", fmt.Errorf("generate: %w", err)
		}
		if attempt == p.retry.MaxRetries {
			break
		}

		p.logger.Debug("retrying generation",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, p.retry.MaxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		p.retry.MaxRetries, time.Since(start), lastErr)
}
