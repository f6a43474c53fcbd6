package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"datadepot/types"
)

const crawlerUserAgent = "datadepot-bot/1.0"

// Crawler walks a site breadth-first from a seed URL, staying within the
// seed's origin and keeping only pages with enough readable text.
type Crawler struct {
	client        *http.Client
	logger        *slog.Logger
	minPageChars  int
	pageCharLimit int
}

type CrawlerConfig struct {
	// MinPageChars filters out near-empty and error pages.
	MinPageChars int
	// PageCharLimit caps the retained text per page; 0 means unlimited.
	PageCharLimit int
	Timeout       time.Duration
}

func NewCrawler(cfg CrawlerConfig, logger *slog.Logger) *Crawler {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
		minPageChars:  cfg.MinPageChars,
		pageCharLimit: cfg.PageCharLimit,
	}
}

// Crawl follows same-origin links from seed until limit pages have been
// collected or the frontier is exhausted. Fetch and parse failures on
// individual pages are logged and skipped.
func (c *Crawler) Crawl(ctx context.Context, seed string, limit int) ([]types.Page, error) {
	origin, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", seed, err)
	}

	queue := []string{seed}
	seen := make(map[string]bool)
	var pages []types.Page

	for len(queue) > 0 && len(pages) < limit {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true

		body, err := c.fetch(ctx, current)
		if err != nil {
			c.logger.Warn("skip page", "url", current, "error", err)
			continue
		}

		text, err := CleanHTML(bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("skip page", "url", current, "error", err)
			continue
		}
		if c.pageCharLimit > 0 && len(text) > c.pageCharLimit {
			text = text[:c.pageCharLimit]
		}
		if len(text) > c.minPageChars {
			pages = append(pages, types.Page{URL: current, Text: text})
			c.logger.Info("indexed page", "url", current, "chars", len(text))
		}

		base, err := url.Parse(current)
		if err != nil {
			continue
		}
		for _, link := range ExtractLinks(base, bytes.NewReader(body)) {
			if seen[link] || len(queue) >= limit*3 {
				continue
			}
			parsed, err := url.Parse(link)
			if err != nil || parsed.Host != origin.Host {
				continue
			}
			queue = append(queue, link)
		}
	}
	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", crawlerUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
