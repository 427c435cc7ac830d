package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// HTTPNavigator fetches pages with plain HTTP requests. The catalog renders its results server side,
// so this works wherever a browser is not installed.
type HTTPNavigator struct {
	collector *colly.Collector
	headers   map[string]string
}

type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
}

func NewHTTPNavigator(opts HTTPOptions) *HTTPNavigator {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	return &HTTPNavigator{
		collector: c,
		headers:   opts.Headers,
	}
}

func (n *HTTPNavigator) Open(ctx context.Context, url string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clone shares the HTTP backend but not callbacks. Its Context cancels the in-flight request.
	c := n.collector.Clone()
	c.Context = ctx
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range n.headers {
			r.Headers.Set(k, v)
		}
	})

	var doc *Document
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		doc = &Document{
			URL:  r.Request.URL.String(),
			HTML: string(r.Body),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusBadRequest {
			fetchErr = fmt.Errorf("unexpected status code %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, fetchErr)
	}
	if doc == nil || doc.HTML == "" {
		return nil, ErrNoContent
	}

	return doc, nil
}

func (n *HTTPNavigator) Close() error {
	return nil
}
