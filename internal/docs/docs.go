// Package docs fetches framework documentation used to enrich system
// prompts. Pages are crawled once, reduced to readable text, and cached
// on disk so concurrent server processes share one copy.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
)

// Config controls crawling and caching.
type Config struct {
	// CacheDir holds one cached text file per framework. Empty means
	// ~/.sitesmith/docs.
	CacheDir string

	// TTL is how long a cached copy stays fresh.
	TTL time.Duration

	// MaxPages caps pages fetched per framework.
	MaxPages int

	UserAgent string
}

const (
	defaultTTL      = 24 * time.Hour
	defaultMaxPages = 4
	defaultAgent    = "sitesmith-docs/1.0"
	requestTimeout  = 20 * time.Second
)

// defaultSources maps frameworks to their reference documentation.
// Frameworks absent here produce no docs context, which is fine: the
// prompt builder degrades to its static template.
var defaultSources = map[framework.Framework][]string{
	framework.TransformersJS: {
		"https://huggingface.co/docs/transformers.js/index",
		"https://huggingface.co/docs/transformers.js/pipelines",
	},
	framework.Gradio: {
		"https://www.gradio.app/guides/quickstart",
		"https://www.gradio.app/docs/gradio/interface",
	},
	framework.Streamlit: {
		"https://docs.streamlit.io/get-started/fundamentals/main-concepts",
		"https://docs.streamlit.io/develop/api-reference",
	},
	framework.ComfyUI: {
		"https://docs.comfy.org/essentials/core-concepts/workflow",
	},
}

// Fetcher crawls and caches documentation text.
type Fetcher struct {
	cfg     Config
	sources map[framework.Framework][]string
	cache   *cache
	logger  log.Logger
}

// NewFetcher creates a Fetcher. The cache directory is created lazily on
// first write.
func NewFetcher(cfg Config, logger log.Logger) *Fetcher {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultAgent
	}
	return &Fetcher{
		cfg:     cfg,
		sources: defaultSources,
		cache:   newCache(cfg.CacheDir, cfg.TTL),
		logger:  logger,
	}
}

// SetSources overrides the crawl targets for one framework. Used by
// configuration and by tests.
func (f *Fetcher) SetSources(fw framework.Framework, urls []string) {
	if f.sources == nil || len(f.sources) == len(defaultSources) {
		// Copy-on-write so the package default stays untouched.
		copied := make(map[framework.Framework][]string, len(f.sources))
		for k, v := range f.sources {
			copied[k] = v
		}
		f.sources = copied
	}
	f.sources[fw] = urls
}

// Docs returns documentation text for fw, from cache when fresh. A crawl
// failure falls back to a stale cached copy before surfacing the error.
func (f *Fetcher) Docs(ctx context.Context, fw framework.Framework) (string, error) {
	urls := f.sources[fw]
	if len(urls) == 0 {
		return "", nil
	}

	key := fw.String()
	if text, ok, err := f.cache.Read(ctx, key, false); err == nil && ok {
		return text, nil
	}

	text, err := f.crawl(ctx, urls)
	if err != nil {
		if stale, ok, readErr := f.cache.Read(ctx, key, true); readErr == nil && ok {
			f.logger.Warn("docs crawl failed, serving stale cache",
				"framework", key, "error", err)
			return stale, nil
		}
		return "", fmt.Errorf("fetch docs for %s: %w", key, err)
	}

	if err := f.cache.Write(ctx, key, text); err != nil {
		// A cache miss next time is the only consequence.
		f.logger.Warn("docs cache write failed", "framework", key, "error", err)
	}
	return text, nil
}

// crawl fetches up to MaxPages of the given URLs and joins their
// readable text. It fails only when no page yields anything.
func (f *Fetcher) crawl(ctx context.Context, urls []string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(requestTimeout)

	var sections []string
	var lastErr error

	c.OnResponse(func(r *colly.Response) {
		section, err := extractText(r.Body, r.Request.URL)
		if err != nil {
			lastErr = err
			return
		}
		if section != "" {
			sections = append(sections, section)
		}
	})
	c.OnError(func(_ *colly.Response, err error) {
		lastErr = err
	})

	for i, u := range urls {
		if i >= f.cfg.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := c.Visit(u); err != nil {
			lastErr = err
		}
	}
	c.Wait()

	if len(sections) == 0 {
		if lastErr != nil {
			return "", lastErr
		}
		return "", fmt.Errorf("no readable content in %d pages", len(urls))
	}
	return strings.Join(sections, "\n\n---\n\n"), nil
}

// extractText reduces one HTML page to titled plain text, preferring
// readability's article extraction and falling back to a bare paragraph
// dump when the page has no article structure.
func extractText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return formatSection(article.Title, article.TextContent), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	var parts []string
	doc.Find("h1, h2, h3, p, pre, li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return "", nil
	}
	return formatSection(title, strings.Join(parts, "\n")), nil
}

func formatSection(title, text string) string {
	text = strings.TrimSpace(text)
	if title == "" {
		return text
	}
	return "# " + strings.TrimSpace(title) + "\n\n" + text
}
