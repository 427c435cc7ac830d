package scraper

import (
	"net/url"
	"strings"

	"github.com/maltedev/course-catalog-scraper/internal/models"
)

const DefaultCatalogURL = "https://www.fivecolleges.edu/academics/courses"

// BuildQueryURL puts the search into the query string, which is where the catalog reads it from.
// Parameters keep the order the catalog's own search form submits them in.
func BuildQueryURL(base string, term models.Term) string {
	if base == "" {
		base = DefaultCatalogURL
	}

	params := [][2]string{
		{"field_course_semester_value", strings.ToUpper(term.Semester)},
		{"field_course_year_value", term.Year},
		{"field_course_institution_value[]", term.Institution},
		{"combine", ""},
		{"course_instructor", ""},
		{"combine_1", ""},
		{"field_course_number_value", ""},
		{"field_course_subject_name_value", term.SubjectQuery},
		{"field_course_subject_value", ""},
	}

	pairs := make([]string, 0, len(params))
	for _, p := range params {
		pairs = append(pairs, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return base + sep + strings.Join(pairs, "&")
}
