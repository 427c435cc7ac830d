package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/course-catalog-scraper/internal/browser"
	"github.com/playwright-community/playwright-go"
)

// BrowserNavigator drives one headless browser tab across the whole crawl.
type BrowserNavigator struct {
	browser      *browser.Browser
	page         playwright.Page
	waitSelector string
	maxRetries   int
	logger       *slog.Logger
}

// NewBrowserNavigator opens a tab on b. When waitSelector is set, each load waits for it before reading the DOM.
func NewBrowserNavigator(b *browser.Browser, waitSelector string, maxRetries int) (*BrowserNavigator, error) {
	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}

	return &BrowserNavigator{
		browser:      b,
		page:         page,
		waitSelector: waitSelector,
		maxRetries:   maxRetries,
		logger:       slog.Default().With("component", "browser_navigator"),
	}, nil
}

func (n *BrowserNavigator) Open(ctx context.Context, url string) (*Document, error) {
	if err := n.browser.NavigateWithRetry(ctx, n.page, url, n.maxRetries); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if n.waitSelector != "" {
		if _, err := n.page.WaitForSelector(n.waitSelector); err != nil {
			// An empty result set has no table, so this is not fatal.
			n.logger.Warn("selector did not appear", "selector", n.waitSelector, "error", err)
		}
	}

	html, err := n.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	if html == "" {
		return nil, ErrNoContent
	}

	return &Document{
		URL:  n.page.URL(),
		HTML: html,
	}, nil
}

func (n *BrowserNavigator) Close() error {
	var errs []error
	if err := n.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close page: %w", err))
	}
	if err := n.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
