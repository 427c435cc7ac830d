package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/course-catalog-scraper/internal/dates"
	"github.com/maltedev/course-catalog-scraper/internal/filter"
	"github.com/maltedev/course-catalog-scraper/internal/models"
	"github.com/maltedev/course-catalog-scraper/internal/render"
	"github.com/maltedev/course-catalog-scraper/internal/storage"
)

const maxDays = 3660

// SnapshotSource is satisfied by every storage backend. The API serves the last scrape regardless of
// the cache TTL.
type SnapshotSource interface {
	LoadLatest(ctx context.Context, key string) (*models.Snapshot, error)
}

// CourseArchive serves courses when no snapshot is cached.
type CourseArchive interface {
	ListCourses(ctx context.Context, termKey, subject string) ([]models.Course, error)
}

type Handlers struct {
	source   SnapshotSource
	archive  CourseArchive
	termKey  string
	groups   []filter.SubjectGroup
	renderer *render.Renderer
	events   EventDefaults
	logger   *slog.Logger
}

type EventDefaults struct {
	Start    string
	NumDays  int
	TimeZone *time.Location
	Duration time.Duration
}

type Options struct {
	// TermKey is served when a request does not name a term.
	TermKey  string
	Archive  CourseArchive
	Groups   []filter.SubjectGroup
	Renderer *render.Renderer
	Events   EventDefaults
}

func NewHandlers(source SnapshotSource, opts Options, logger *slog.Logger) *Handlers {
	groups := opts.Groups
	if len(groups) == 0 {
		groups = filter.DefaultGroups()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = &render.Renderer{}
	}
	events := opts.Events
	if events.Start == "" {
		events.Start = dates.DefaultStart
	}
	if events.NumDays <= 0 {
		events.NumDays = dates.DefaultNumDays
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handlers{
		source:   source,
		archive:  opts.Archive,
		termKey:  opts.TermKey,
		groups:   groups,
		renderer: renderer,
		events:   events,
		logger:   logger.With("component", "api"),
	}
}

// CoursesResponse represents a term's course listing
type CoursesResponse struct {
	Term      string          `json:"term"`
	RunID     string          `json:"run_id,omitempty"`
	ScrapedAt *time.Time      `json:"scraped_at,omitempty"`
	Count     int             `json:"count"`
	Courses   []models.Course `json:"courses"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCourses handles the course listing, optionally narrowed to one subject
func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	termKey := h.requestTerm(r)
	subject := r.URL.Query().Get("subject")

	snapshot, err := h.source.LoadLatest(r.Context(), termKey)
	if err == nil {
		courses := snapshot.Courses
		if subject != "" {
			courses = filter.BySubject(snapshot.Catalog(), subject)
		}
		scrapedAt := snapshot.ScrapedAt
		h.respondJSON(w, http.StatusOK, CoursesResponse{
			Term:      termKey,
			RunID:     snapshot.RunID,
			ScrapedAt: &scrapedAt,
			Count:     len(courses),
			Courses:   courses,
		})
		return
	}

	if !errors.Is(err, storage.ErrCacheMiss) || h.archive == nil {
		h.snapshotError(w, termKey, err)
		return
	}

	courses, err := h.archive.ListCourses(r.Context(), termKey, subject)
	if err != nil {
		h.logger.Error("failed to list archived courses", "error", err, "term", termKey)
		h.respondError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	if len(courses) == 0 {
		h.respondError(w, http.StatusNotFound, "no courses for term "+termKey)
		return
	}

	h.respondJSON(w, http.StatusOK, CoursesResponse{
		Term:    termKey,
		Count:   len(courses),
		Courses: courses,
	})
}

// GetCourse handles lookup by subject-number-section key
func (h *Handlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	termKey := h.requestTerm(r)

	snapshot, err := h.source.LoadLatest(r.Context(), termKey)
	if err != nil {
		h.snapshotError(w, termKey, err)
		return
	}

	course, ok := snapshot.Catalog().Get(key)
	if !ok {
		h.respondError(w, http.StatusNotFound, "course not found")
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	termKey := h.requestTerm(r)

	snapshot, err := h.source.LoadLatest(r.Context(), termKey)
	if err != nil {
		h.snapshotError(w, termKey, err)
		return
	}

	h.respondJSON(w, http.StatusOK, filter.Partition(snapshot.Catalog(), h.groups))
}

// Fragment serves the same HTML the scrape command appends to its output file.
func (h *Handlers) Fragment(w http.ResponseWriter, r *http.Request) {
	termKey := h.requestTerm(r)

	snapshot, err := h.source.LoadLatest(r.Context(), termKey)
	if err != nil {
		h.snapshotError(w, termKey, err)
		return
	}

	var buf bytes.Buffer
	groups := filter.Partition(snapshot.Catalog(), h.groups)
	if err := h.renderer.WriteFragment(&buf, groups, snapshot.ScrapedAt); err != nil {
		h.logger.Error("failed to render fragment", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to render fragment")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// DatesResponse represents the generated occurrences of weekly events
type DatesResponse struct {
	Start       string             `json:"start"`
	Days        int                `json:"days"`
	Occurrences []dates.Occurrence `json:"occurrences"`
}

// ListDates handles ?start=Feb 1 2021&days=100&event=tuesday@6:00 PM&event=thursday@6:00 PM.
// format=ics returns a calendar feed instead of JSON.
func (h *Handlers) ListDates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	startStr := q.Get("start")
	if startStr == "" {
		startStr = h.events.Start
	}
	start, err := dates.ParseStart(startStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	numDays := h.events.NumDays
	if v := q.Get("days"); v != "" {
		numDays, err = strconv.Atoi(v)
		if err != nil || numDays < 0 || numDays > maxDays {
			h.respondError(w, http.StatusBadRequest, "days must be a number between 0 and "+strconv.Itoa(maxDays))
			return
		}
	}

	rawEvents := q["event"]
	if len(rawEvents) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one event is required")
		return
	}

	specs := make([]dates.EventSpec, 0, len(rawEvents))
	for _, raw := range rawEvents {
		spec, err := dates.ParseEventSpec(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		specs = append(specs, spec)
	}

	days := dates.Range(start, numDays)

	if q.Get("format") == "ics" {
		var buf bytes.Buffer
		err := dates.WriteICS(&buf, specs, days, dates.ICSOptions{
			Summary:  q.Get("summary"),
			Location: q.Get("location"),
			Duration: h.events.Duration,
			TimeZone: h.events.TimeZone,
		})
		if err != nil {
			h.logger.Error("failed to write calendar", "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to write calendar")
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	h.respondJSON(w, http.StatusOK, DatesResponse{
		Start:       dates.FormatDate(start),
		Days:        numDays,
		Occurrences: dates.Occurrences(specs, days),
	})
}

func (h *Handlers) requestTerm(r *http.Request) string {
	if term := r.URL.Query().Get("term"); term != "" {
		return term
	}
	return h.termKey
}

func (h *Handlers) snapshotError(w http.ResponseWriter, termKey string, err error) {
	if errors.Is(err, storage.ErrCacheMiss) {
		h.respondError(w, http.StatusNotFound, "no snapshot for term "+termKey)
		return
	}
	h.logger.Error("failed to load snapshot", "error", err, "term", termKey)
	h.respondError(w, http.StatusInternalServerError, "failed to load snapshot")
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
