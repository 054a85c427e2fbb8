package space

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sitesmith/sitesmith/internal/log"
)

// Upload retry policy: transient failures get a small fixed number of
// attempts with a short fixed delay, per file. Permission errors
// short-circuit immediately.
const (
	uploadAttempts = 3
	uploadDelay    = 500 * time.Millisecond
)

// HubClient talks to the hosting platform's HTTP API. It implements Client.
type HubClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  log.Logger
}

// HubConfig configures a HubClient.
type HubConfig struct {
	BaseURL string      // platform API root, e.g. "https://hub.example.com"
	Token   string      // bearer token with write scope
	Logger  log.Logger  // nil = discard
	HTTP    *http.Client // nil = default with 30s timeout
	// RequestsPerSecond throttles all API calls. 0 = default of 8.
	RequestsPerSecond float64
}

// NewHubClient creates a hub client.
func NewHubClient(cfg HubConfig) (*HubClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("hub base URL is required")
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &HubClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:  logger,
	}, nil
}

type treeEntry struct {
	Path string `json:"path"`
}

// ListFiles returns the relative paths stored under target.
func (c *HubClient) ListFiles(ctx context.Context, target Target) ([]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/spaces/%s/tree", target.ID()))
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", target.ID(), err)
	}

	var entries []treeEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode file tree for %s: %w", target.ID(), err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

// FetchFile downloads one file's content.
func (c *HubClient) FetchFile(ctx context.Context, target Target, path string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/spaces/%s/raw/%s", target.ID(), url.PathEscape(path)))
	if err != nil {
		return "", fmt.Errorf("fetch %s from %s: %w", path, target.ID(), err)
	}
	return string(body), nil
}

// UploadFile creates or overwrites one file, retrying transient failures.
func (c *HubClient) UploadFile(ctx context.Context, target Target, file File) error {
	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		err := c.put(ctx,
			fmt.Sprintf("/api/spaces/%s/upload/%s", target.ID(), url.PathEscape(file.Path)),
			[]byte(file.Content))
		if err == nil {
			return nil
		}
		lastErr = err

		// Authorization failures cannot be fixed by retrying.
		if errors.Is(err, ErrPermission) || errors.Is(err, ErrNotFound) {
			return fmt.Errorf("upload %s to %s: %w", file.Path, target.ID(), err)
		}

		if attempt < uploadAttempts {
			c.logger.Debug("retrying upload",
				"path", file.Path, "target", target.ID(), "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("upload %s to %s: %w", file.Path, target.ID(), ctx.Err())
			case <-time.After(uploadDelay):
			}
		}
	}
	return fmt.Errorf("upload %s to %s after %d attempts: %w",
		file.Path, target.ID(), uploadAttempts, lastErr)
}

type createRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
}

// Create provisions a new space of the given kind.
func (c *HubClient) Create(ctx context.Context, target Target, kind string) error {
	payload, err := json.Marshal(createRequest{Owner: target.Owner, Name: target.Name, Kind: kind})
	if err != nil {
		return fmt.Errorf("encode create request: %w", err)
	}
	if err := c.post(ctx, "/api/spaces", payload); err != nil {
		return fmt.Errorf("create space %s: %w", target.ID(), err)
	}
	return nil
}

func (c *HubClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *HubClient) put(ctx context.Context, path string, body []byte) error {
	_, err := c.do(ctx, http.MethodPut, path, body)
	return err
}

func (c *HubClient) post(ctx context.Context, path string, body []byte) error {
	_, err := c.do(ctx, http.MethodPost, path, body)
	return err
}

// do executes one rate-limited request and maps status codes onto the
// package error taxonomy.
func (c *HubClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrPermission, strings.TrimSpace(string(data)))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	default:
		return nil, fmt.Errorf("hub returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
}
