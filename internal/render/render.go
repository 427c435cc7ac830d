package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/filter"
	"github.com/maltedev/course-catalog-scraper/internal/models"
)

const (
	ScheduleURL = "https://www.fivecolleges.edu/academics/course"
	SpireURL    = "https://www.spire.umass.edu"

	updatedLayout = "01-02-2006"
)

const tableHead = "<table>\n<thead>\n<tr>\n<th>Subject</th>\n<th>Course #</th>\n<th>Section #</th>\n" +
	"<th>Type</th>\n<th>Title</th>\n<th>Instructor</th>\n<th>Time</th>\n</tr>\n</thead>\n<tbody>\n"

// Renderer writes the course listing fragment pasted into the department site.
// Cell text is written as scraped unless Escape is set.
type Renderer struct {
	Escape bool
}

func (r *Renderer) WriteFragment(w io.Writer, groups []filter.Group, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "<p>This list is copied from the Five College Consortium <a href=\"%s\" target=\"_blank\"> course schedule</a>.<br>\n ", ScheduleURL)
	fmt.Fprintf(bw, "Until the end of Add/Drop, courses are changing daily. Please log into <a href=\"%s\" target=\"_blank\">SPIRE</a> for the latest course information.<br>\n", SpireURL)
	fmt.Fprintf(bw, "<em>This page last updated %s</em></p>\n", now.Format(updatedLayout))

	for _, g := range groups {
		r.writeTable(bw, g)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write fragment: %w", err)
	}
	return nil
}

func (r *Renderer) writeTable(w *bufio.Writer, g filter.Group) {
	fmt.Fprintf(w, "<h2>Courses in %s</h2>\n", r.text(g.Heading))
	w.WriteString(tableHead)

	for _, c := range g.Courses {
		r.writeRow(w, c)
	}

	// No trailing newline; the next heading follows the table directly.
	w.WriteString("</tbody>\n</table>")
}

func (r *Renderer) writeRow(w *bufio.Writer, c models.Course) {
	w.WriteString("<tr>\n")
	r.cell(w, c.Subject)
	r.cell(w, c.Number)
	r.cell(w, c.Section)
	r.cell(w, c.Type)
	fmt.Fprintf(w, "<td><a href=\"%s\" target=\"_blank\">%s</a></td>\n", r.text(c.URL), r.text(c.Title))
	r.cell(w, c.Instructor)
	r.cell(w, c.Time)
	w.WriteString("</tr>\n")
}

func (r *Renderer) cell(w *bufio.Writer, s string) {
	w.WriteString("<td>" + r.text(s) + "</td>\n")
}

func (r *Renderer) text(s string) string {
	if r.Escape {
		return html.EscapeString(s)
	}
	return s
}

// AppendToFile appends the fragment to path, creating the file if needed. Earlier runs are kept.
func (r *Renderer) AppendToFile(path string, groups []filter.Group, now time.Time) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	if err := r.WriteFragment(f, groups, now); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
