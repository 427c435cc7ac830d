package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidTerm = errors.New("invalid term")

const (
	SemesterFall   = "F"
	SemesterSpring = "S"

	DefaultInstitution  = "U"
	DefaultSubjectQuery = "GEO"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Course is one row of the catalog results table.
type Course struct {
	Subject    string `json:"subject"`
	Number     string `json:"number"`
	Section    string `json:"section"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Instructor string `json:"instructor"`
	Time       string `json:"time"`
}

// Key identifies an offering as subject-number-section.
func (c Course) Key() string {
	return c.Subject + "-" + c.Number + "-" + c.Section
}

// Catalog maps course keys to records and remembers the order keys were first seen.
type Catalog struct {
	courses map[string]Course
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		courses: make(map[string]Course),
	}
}

// Add stores the course under its key. A repeated key replaces the record but keeps its position.
func (c *Catalog) Add(course Course) {
	key := course.Key()
	if _, exists := c.courses[key]; !exists {
		c.order = append(c.order, key)
	}
	c.courses[key] = course
}

func (c *Catalog) Get(key string) (Course, bool) {
	course, ok := c.courses[key]
	return course, ok
}

func (c *Catalog) Len() int {
	return len(c.courses)
}

func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Courses returns the records in first-seen order.
func (c *Catalog) Courses() []Course {
	courses := make([]Course, 0, len(c.order))
	for _, key := range c.order {
		courses = append(courses, c.courses[key])
	}
	return courses
}

// Term selects one semester of one institution's offerings for a subject query.
type Term struct {
	Semester     string `json:"semester"`
	Year         string `json:"year"`
	Institution  string `json:"institution"`
	SubjectQuery string `json:"subject_query"`
}

func (t Term) Validate() error {
	switch strings.ToUpper(t.Semester) {
	case SemesterFall, SemesterSpring:
	default:
		return fmt.Errorf("%w: semester must be F or S, got %q", ErrInvalidTerm, t.Semester)
	}

	if !yearPattern.MatchString(t.Year) {
		return fmt.Errorf("%w: year must have four digits, got %q", ErrInvalidTerm, t.Year)
	}

	if t.Institution == "" {
		return fmt.Errorf("%w: institution is required", ErrInvalidTerm)
	}

	return nil
}

// Key is used for snapshot caching and the database archive.
func (t Term) Key() string {
	return strings.Join([]string{
		strings.ToUpper(t.Semester),
		t.Year,
		t.Institution,
		t.SubjectQuery,
	}, "-")
}

// Snapshot is the result of one scrape run.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	Term      Term      `json:"term"`
	SourceURL string    `json:"source_url"`
	ScrapedAt time.Time `json:"scraped_at"`
	Pages     int       `json:"pages"`
	Courses   []Course  `json:"courses"`
}

func NewSnapshot(runID string, term Term, sourceURL string, pages int, catalog *Catalog) *Snapshot {
	return &Snapshot{
		RunID:     runID,
		Term:      term,
		SourceURL: sourceURL,
		ScrapedAt: time.Now(),
		Pages:     pages,
		Courses:   catalog.Courses(),
	}
}

func (s *Snapshot) Catalog() *Catalog {
	catalog := NewCatalog()
	for _, course := range s.Courses {
		catalog.Add(course)
	}
	return catalog
}
