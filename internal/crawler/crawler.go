// Package crawler fetches pages breadth-first from a seed URL, staying on the
// seed's host, honouring robots.txt, and bounding the crawl by depth and page
// count. Its output is the ordered page sequence the indexer consumes.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/SiddhantNarel/mini-search-engine/pkg/config"
	"github.com/SiddhantNarel/mini-search-engine/pkg/logger"
	"github.com/SiddhantNarel/mini-search-engine/pkg/metrics"
)

// Page is one successfully crawled document: the input record contract
// between the crawler and the index builder. Text is extracted visible body
// text, not raw markup.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Crawler is a breadth-first, single-host web crawler.
type Crawler struct {
	cfg     config.CrawlerConfig
	client  *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger

	// OnPage, when set, is invoked after every successful fetch with the
	// number of pages collected so far and the page cap. The CLI uses it to
	// drive a progress bar.
	OnPage func(fetched, max int, url string)
}

// New creates a Crawler. A nil metrics receiver disables instrumentation.
func New(cfg config.CrawlerConfig, m *metrics.Metrics) *Crawler {
	return &Crawler{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		metrics: m,
		logger:  logger.WithComponent("crawler"),
	}
}

type queueItem struct {
	url   string
	depth int
}

// Crawl runs a breadth-first crawl from seedURL and returns the fetched pages
// in crawl order. It stops when the page cap is reached, the queue drains, or
// ctx is cancelled (returning the pages collected so far along with ctx's
// error). Fetch failures are logged and skipped, never fatal.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]Page, error) {
	seed, err := url.Parse(seedURL)
	if err != nil || seed.Scheme == "" || seed.Host == "" {
		return nil, fmt.Errorf("invalid seed URL %q", seedURL)
	}

	robots := c.fetchRobots(ctx, seed)

	c.logger.Info("starting crawl",
		"seed", seedURL,
		"max_depth", c.cfg.MaxDepth,
		"max_pages", c.cfg.MaxPages,
	)

	visited := make(map[string]bool)
	queue := []queueItem{{url: seedURL, depth: 0}}
	pages := make([]Page, 0, c.cfg.MaxPages)

	for len(queue) > 0 && len(pages) < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("crawl cancelled", "pages", len(pages))
			return pages, err
		}

		item := queue[0]
		queue = queue[1:]

		if visited[item.url] || item.depth > c.cfg.MaxDepth {
			continue
		}
		if !c.allowed(robots, item.url) {
			c.logger.Info("blocked by robots.txt", "url", item.url)
			if c.metrics != nil {
				c.metrics.RobotsBlockedTotal.Inc()
			}
			continue
		}
		visited[item.url] = true

		page, links, err := c.fetchPage(ctx, item.url)
		if err != nil {
			c.logger.Warn("fetch failed", "url", item.url, "error", err)
			if c.metrics != nil {
				c.metrics.CrawlErrorsTotal.Inc()
			}
			continue
		}

		pages = append(pages, page)
		if c.metrics != nil {
			c.metrics.PagesCrawledTotal.Inc()
		}
		if c.OnPage != nil {
			c.OnPage(len(pages), c.cfg.MaxPages, item.url)
		}
		c.logger.Debug("page crawled",
			"url", item.url,
			"depth", item.depth,
			"fetched", len(pages),
		)

		if item.depth < c.cfg.MaxDepth {
			for _, link := range links {
				if !visited[link] {
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}

		if c.cfg.Delay > 0 && len(queue) > 0 && len(pages) < c.cfg.MaxPages {
			select {
			case <-time.After(c.cfg.Delay):
			case <-ctx.Done():
				return pages, ctx.Err()
			}
		}
	}

	c.logger.Info("crawl finished", "pages", len(pages))
	return pages, nil
}

// fetchPage downloads one URL and extracts its title, visible text, and
// cleaned same-host links. Non-HTML responses are skipped.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return Page{}, nil, fmt.Errorf("skipping non-HTML content type %q", ct)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, nil, err
	}
	title, text, links, err := parsePage(resp.Body, base)
	if err != nil {
		return Page{}, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return Page{URL: pageURL, Title: title, Text: text}, links, nil
}

// fetchRobots downloads and parses the host's robots.txt. Any failure to
// fetch or parse it means the crawl treats every URL as allowed, matching the
// common permissive convention.
func (c *Crawler) fetchRobots(ctx context.Context, seed *url.URL) *robotstxt.RobotsData {
	robotsURL := seed.Scheme + "://" + seed.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		c.logger.Debug("robots.txt unparseable", "url", robotsURL, "error", err)
		return nil
	}
	return data
}

func (c *Crawler) allowed(robots *robotstxt.RobotsData, pageURL string) bool {
	if robots == nil {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	return robots.FindGroup(c.cfg.UserAgent).Test(u.Path)
}
