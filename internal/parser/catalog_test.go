package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="view-content">
<table class="views-table cols-7">
<thead><tr><th>Subject</th><th>Course #</th><th>Section #</th><th>Type</th><th>Title</th><th>Instructor</th><th>Time</th></tr></thead>
<tbody>
<tr class="odd views-row-first">
  <td class="views-field views-field-subject">GEOLOGY</td>
  <td class="views-field views-field-number">101</td>
  <td class="views-field views-field-section">01</td>
  <td class="views-field views-field-type">LEC</td>
  <td class="views-field views-field-title"><a href="/academics/courses/geology-101-01">Intro
      Geology</a></td>
  <td class="views-field views-field-instructor">Jane Smith</td>
  <td class="views-field views-field-time">MWF 10:10AM-11:00AM</td>
</tr>
<tr class="even">
  <td>GEOGRAPH</td><td>102</td><td>01</td><td>LEC</td>
  <td><a href="https://www.fivecolleges.edu/academics/courses/geograph-102-01">Global Environments</a></td>
  <td>Alex Doe</td><td>TuTh 1:00PM-2:15PM</td>
</tr>
</tbody>
</table>
</div>
<ul class="pager">
  <li class="pager-current">1</li>
  <li class="pager-next"><a href="/academics/courses?page=1&amp;field_course_year_value=2020">next ›</a></li>
</ul>
</body></html>`

const lastPage = `<html><body>
<table class="views-table"><tbody>
<tr><td>GEO-SCI</td><td>591</td><td>01</td><td>SEM</td><td>Seminar</td><td>TBA</td><td>TBA</td></tr>
</tbody></table>
<ul class="pager"><li class="pager-previous"><a href="/academics/courses?page=0">‹ previous</a></li></ul>
</body></html>`

func TestParsePage_ExtractsRowsAndNextLink(t *testing.T) {
	p := NewCatalogParser("", "")

	page, err := p.ParsePage(resultsPage, "https://www.fivecolleges.edu/academics/courses?page=0")
	require.NoError(t, err)
	require.Len(t, page.Courses, 2)

	first := page.Courses[0]
	assert.Equal(t, "GEOLOGY", first.Subject)
	assert.Equal(t, "101", first.Number)
	assert.Equal(t, "01", first.Section)
	assert.Equal(t, "LEC", first.Type)
	assert.Equal(t, "Intro Geology", first.Title)
	assert.Equal(t, "https://www.fivecolleges.edu/academics/courses/geology-101-01", first.URL)
	assert.Equal(t, "Jane Smith", first.Instructor)
	assert.Equal(t, "MWF 10:10AM-11:00AM", first.Time)
	assert.Equal(t, "GEOLOGY-101-01", first.Key())

	assert.Equal(t, "https://www.fivecolleges.edu/academics/courses/geograph-102-01", page.Courses[1].URL)

	assert.True(t, page.HasNext())
	assert.Equal(t, "https://www.fivecolleges.edu/academics/courses?page=1&field_course_year_value=2020", page.NextURL)
}

func TestParsePage_NoNextLinkOnLastPage(t *testing.T) {
	p := NewCatalogParser("", "")

	page, err := p.ParsePage(lastPage, "https://www.fivecolleges.edu/academics/courses?page=1")
	require.NoError(t, err)

	require.Len(t, page.Courses, 1)
	assert.Equal(t, "", page.Courses[0].URL)
	assert.False(t, page.HasNext())
}

func TestParsePage_EdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantCount int
		wantErr   error
	}{
		{
			name:      "no table",
			html:      `<html><body><p>No results</p></body></html>`,
			wantCount: 0,
		},
		{
			name:      "header-only row in body is skipped",
			html:      `<table class="views-table"><tbody><tr><th>Subject</th></tr></tbody></table>`,
			wantCount: 0,
		},
		{
			name:    "short row is a layout change",
			html:    `<table class="views-table"><tbody><tr><td>GEOLOGY</td><td>101</td></tr></tbody></table>`,
			wantErr: ErrUnexpectedLayout,
		},
		{
			name: "extra cells are ignored",
			html: `<table class="views-table"><tbody><tr>
				<td>GEOLOGY</td><td>101</td><td>01</td><td>LAB</td><td>Lab</td><td>Staff</td><td>F 1PM</td><td>extra</td>
			</tr></tbody></table>`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCatalogParser("", "")
			page, err := p.ParsePage(tt.html, "https://example.test/courses")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.Len(t, page.Courses, tt.wantCount)
		})
	}
}

func TestParsePage_CustomSelectors(t *testing.T) {
	html := `<div id="results"><table><tbody>
		<tr><td>GEOLOGY</td><td>105</td><td>01</td><td>LEC</td><td>Dinosaurs</td><td>Staff</td><td>TBA</td></tr>
	</tbody></table></div>
	<a class="next" href="?page=2">Next</a>`

	p := NewCatalogParser("#results tbody tr", "a.next")
	page, err := p.ParsePage(html, "https://example.test/courses?page=1")
	require.NoError(t, err)

	require.Len(t, page.Courses, 1)
	assert.Equal(t, "Dinosaurs", page.Courses[0].Title)
	assert.Equal(t, "https://example.test/courses?page=2", page.NextURL)
}

func TestParsePage_InvalidPageURL(t *testing.T) {
	p := NewCatalogParser("", "")
	_, err := p.ParsePage(lastPage, "://bad")
	assert.Error(t, err)
}
