package scraper

import (
	"context"
	"errors"
)

var ErrNoContent = errors.New("page returned no content")

// Document is a loaded results page.
type Document struct {
	URL  string
	HTML string
}

// Navigator loads catalog pages. Implementations hold the browser or HTTP session for the whole crawl.
type Navigator interface {
	Open(ctx context.Context, url string) (*Document, error)
	Close() error
}
