package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/course-catalog-scraper/internal/models"
)

const (
	DefaultRowSelector  = "table.views-table > tbody > tr"
	DefaultNextSelector = ".pager-next a"

	columnCount = 7
)

// Column positions of the results table, zero based.
const (
	colSubject = iota
	colNumber
	colSection
	colType
	colTitle
	colInstructor
	colTime
)

type CatalogParser struct {
	rowSelector  string
	nextSelector string
}

func NewCatalogParser(rowSelector, nextSelector string) *CatalogParser {
	if rowSelector == "" {
		rowSelector = DefaultRowSelector
	}
	if nextSelector == "" {
		nextSelector = DefaultNextSelector
	}

	return &CatalogParser{
		rowSelector:  rowSelector,
		nextSelector: nextSelector,
	}
}

func (p *CatalogParser) ParsePage(html string, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	page := &Page{}

	var rowErr error
	doc.Find(p.rowSelector).EachWithBreak(func(i int, row *goquery.Selection) bool {
		course, ok, err := p.parseRow(row, base)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i+1, err)
			return false
		}
		if ok {
			page.Courses = append(page.Courses, course)
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	if href, exists := doc.Find(p.nextSelector).First().Attr("href"); exists {
		href = strings.TrimSpace(href)
		if href != "" {
			page.NextURL = resolve(base, href)
		}
	}

	return page, nil
}

// parseRow reads the fixed-position cells of a results row. Rows without data cells are skipped.
func (p *CatalogParser) parseRow(row *goquery.Selection, base *url.URL) (models.Course, bool, error) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() == 0 {
		return models.Course{}, false, nil
	}
	if cells.Length() < columnCount {
		return models.Course{}, false, fmt.Errorf("%w: expected %d cells, got %d",
			ErrUnexpectedLayout, columnCount, cells.Length())
	}

	cell := func(i int) string {
		return cleanText(cells.Eq(i).Text())
	}

	course := models.Course{
		Subject:    cell(colSubject),
		Number:     cell(colNumber),
		Section:    cell(colSection),
		Type:       cell(colType),
		Title:      cell(colTitle),
		Instructor: cell(colInstructor),
		Time:       cell(colTime),
	}

	if href, exists := cells.Eq(colTitle).Find("a").First().Attr("href"); exists {
		course.URL = resolve(base, strings.TrimSpace(href))
	}

	return course, true, nil
}

// cleanText collapses the whitespace browsers would not render.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
