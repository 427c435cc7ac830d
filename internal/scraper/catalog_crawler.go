package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/course-catalog-scraper/internal/models"
	"github.com/maltedev/course-catalog-scraper/internal/parser"
	"github.com/maltedev/course-catalog-scraper/internal/ratelimit"
)

type CatalogCrawler struct {
	navigator Navigator
	parser    parser.Parser
	limiter   ratelimit.RateLimiter
	logger    *slog.Logger
	maxPages  int
}

type CrawlerOptions struct {
	// MaxPages stops the crawl after this many pages. Zero means follow every next link.
	MaxPages int
	Limiter  ratelimit.RateLimiter
	Logger   *slog.Logger
}

type CrawlResult struct {
	StartURL string
	Pages    int
	Catalog  *models.Catalog
}

func NewCatalogCrawler(nav Navigator, p parser.Parser, opts CrawlerOptions) *CatalogCrawler {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogCrawler{
		navigator: nav,
		parser:    p,
		limiter:   limiter,
		logger:    logger.With("component", "catalog_crawler"),
		maxPages:  opts.MaxPages,
	}
}

// Crawl reads every results page reachable from startURL through next links.
// The loop ends when a page has no next link.
func (c *CatalogCrawler) Crawl(ctx context.Context, startURL string) (*CrawlResult, error) {
	c.logger.Info("starting catalog crawl", "url", startURL)

	result := &CrawlResult{
		StartURL: startURL,
		Catalog:  models.NewCatalog(),
	}

	visited := make(map[string]bool)
	nextURL := startURL

	for nextURL != "" {
		if c.maxPages > 0 && result.Pages >= c.maxPages {
			c.logger.Info("page limit reached", "max_pages", c.maxPages)
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pageNum := result.Pages + 1
		c.logger.Info("scraping page of results", "page", pageNum, "url", nextURL)

		page, finalURL, err := c.scrapePage(ctx, nextURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scrape page %d: %w", pageNum, err)
		}

		visited[nextURL] = true
		visited[finalURL] = true
		result.Pages = pageNum

		for _, course := range page.Courses {
			result.Catalog.Add(course)
		}

		c.logger.Info("extracted courses from page", "page", pageNum, "count", len(page.Courses))

		if !page.HasNext() {
			c.logger.Info("no next page link found")
			break
		}

		if visited[page.NextURL] {
			c.logger.Warn("next page link was already visited, stopping", "url", page.NextURL)
			break
		}

		nextURL = page.NextURL
	}

	c.logger.Info("catalog crawl completed",
		"pages", result.Pages,
		"courses", result.Catalog.Len())

	return result, nil
}

func (c *CatalogCrawler) scrapePage(ctx context.Context, url string) (*parser.Page, string, error) {
	doc, err := c.navigator.Open(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open page: %w", err)
	}

	finalURL := doc.URL
	if finalURL == "" {
		finalURL = url
	}

	page, err := c.parser.ParsePage(doc.HTML, finalURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page: %w", err)
	}

	return page, finalURL, nil
}

func (c *CatalogCrawler) Close() error {
	return c.navigator.Close()
}
