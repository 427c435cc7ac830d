package parser

import (
	"errors"

	"github.com/maltedev/course-catalog-scraper/internal/models"
)

var ErrUnexpectedLayout = errors.New("unexpected catalog table layout")

// Page is what one results page yields: its rows and, if there is one, the link to the next page.
type Page struct {
	Courses []models.Course
	NextURL string
}

func (p *Page) HasNext() bool {
	return p.NextURL != ""
}

type Parser interface {
	ParsePage(html string, pageURL string) (*Page, error)
}
