package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/dates"
	"github.com/maltedev/course-catalog-scraper/internal/filter"
	"github.com/maltedev/course-catalog-scraper/internal/models"
	"github.com/maltedev/course-catalog-scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const termKey = "F-2020-U-GEO"

type fakeSource struct {
	snapshots map[string]*models.Snapshot
	err       error
}

func (f *fakeSource) LoadLatest(ctx context.Context, key string) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.snapshots[key]
	if !ok {
		return nil, storage.ErrCacheMiss
	}
	return s, nil
}

// MockArchive is a mock for the course archive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) ListCourses(ctx context.Context, termKey, subject string) ([]models.Course, error) {
	args := m.Called(ctx, termKey, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Course), args.Error(1)
}

func testSnapshot() *models.Snapshot {
	catalog := models.NewCatalog()
	catalog.Add(models.Course{Subject: "GEOLOGY", Number: "101", Section: "01", Type: "LEC", Title: "Intro Geology", URL: "https://example.edu/g101"})
	catalog.Add(models.Course{Subject: "GEOGRAPH", Number: "102", Section: "01", Type: "LEC", Title: "Global Environments"})
	catalog.Add(models.Course{Subject: "GEO-SCI", Number: "591", Section: "01", Type: "SEM", Title: "Seminar"})

	term := models.Term{Semester: "F", Year: "2020", Institution: "U", SubjectQuery: "GEO"}
	s := models.NewSnapshot("run-1", term, "https://catalog.test", 1, catalog)
	s.ScrapedAt = time.Date(2020, time.August, 3, 12, 0, 0, 0, time.UTC)
	return s
}

func newTestServer(t *testing.T, source SnapshotSource, archive CourseArchive) *httptest.Server {
	t.Helper()

	opts := Options{
		TermKey: termKey,
		Events:  EventDefaults{TimeZone: time.UTC},
	}
	if archive != nil {
		opts.Archive = archive
	}

	srv := httptest.NewServer(NewRouter(NewHandlers(source, opts, nil), RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	resp, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestListCourses(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*models.Snapshot{termKey: testSnapshot()}}
	srv := newTestServer(t, source, nil)

	t.Run("all courses in scraped order", func(t *testing.T) {
		resp, body := get(t, srv, "/api/v1/courses")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var got CoursesResponse
		require.NoError(t, json.Unmarshal([]byte(body), &got))
		assert.Equal(t, termKey, got.Term)
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, "GEOLOGY-101-01", got.Courses[0].Key())
		assert.Equal(t, "GEO-SCI-591-01", got.Courses[2].Key())
	})

	t.Run("filtered by subject", func(t *testing.T) {
		resp, body := get(t, srv, "/api/v1/courses?subject=GEOGRAPH")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got CoursesResponse
		require.NoError(t, json.Unmarshal([]byte(body), &got))
		require.Equal(t, 1, got.Count)
		assert.Equal(t, "Global Environments", got.Courses[0].Title)
	})

	t.Run("unknown term", func(t *testing.T) {
		resp, body := get(t, srv, "/api/v1/courses?term=S-1999-U-GEO")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "S-1999-U-GEO")
	})
}

func TestListCourses_FallsBackToArchive(t *testing.T) {
	archive := new(MockArchive)
	archive.On("ListCourses", mock.Anything, termKey, "GEOLOGY").Return([]models.Course{
		{Subject: "GEOLOGY", Number: "101", Section: "01"},
	}, nil)
	archive.On("ListCourses", mock.Anything, termKey, "").Return([]models.Course{}, nil)

	srv := newTestServer(t, &fakeSource{}, archive)

	resp, body := get(t, srv, "/api/v1/courses?subject=GEOLOGY")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got CoursesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 1, got.Count)
	assert.Empty(t, got.RunID)

	resp, _ = get(t, srv, "/api/v1/courses")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	archive.AssertExpectations(t)
}

func TestListCourses_StoreError(t *testing.T) {
	srv := newTestServer(t, &fakeSource{err: errors.New("redis down")}, new(MockArchive))

	resp, body := get(t, srv, "/api/v1/courses")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, body, "redis down")
}

func TestGetCourse(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*models.Snapshot{termKey: testSnapshot()}}
	srv := newTestServer(t, source, nil)

	resp, body := get(t, srv, "/api/v1/courses/GEO-SCI-591-01")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var course models.Course
	require.NoError(t, json.Unmarshal([]byte(body), &course))
	assert.Equal(t, "Seminar", course.Title)

	resp, _ = get(t, srv, "/api/v1/courses/GEOLOGY-999-01")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListGroups(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*models.Snapshot{termKey: testSnapshot()}}
	srv := newTestServer(t, source, nil)

	resp, body := get(t, srv, "/api/v1/groups")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var groups []filter.Group
	require.NoError(t, json.Unmarshal([]byte(body), &groups))
	require.Len(t, groups, 3)
	assert.Equal(t, "Geography", groups[0].Heading)
	assert.Equal(t, "GEOGRAPH-102-01", groups[0].Courses[0].Key())
	assert.Equal(t, "the Geosciences", groups[2].Heading)
}

func TestFragment(t *testing.T) {
	source := &fakeSource{snapshots: map[string]*models.Snapshot{termKey: testSnapshot()}}
	srv := newTestServer(t, source, nil)

	resp, body := get(t, srv, "/fragment")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "This page last updated 08-03-2020")
	assert.Contains(t, body, "<h2>Courses in Geology</h2>")
	assert.Contains(t, body, `<a href="https://example.edu/g101" target="_blank">Intro Geology</a>`)

	empty := newTestServer(t, &fakeSource{}, nil)
	resp, _ = get(t, empty, "/fragment")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFragment_ServesSnapshotPastCacheTTL(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir(), 12*time.Hour)
	require.NoError(t, err)

	snapshot := testSnapshot()
	snapshot.ScrapedAt = time.Now().Add(-13 * time.Hour)
	require.NoError(t, store.Save(ctx, termKey, snapshot))

	_, err = store.Load(ctx, termKey)
	require.ErrorIs(t, err, storage.ErrCacheMiss)

	srv := newTestServer(t, store, nil)

	for _, path := range []string{"/fragment", "/api/v1/courses", "/api/v1/groups", "/api/v1/courses/GEOLOGY-101-01"} {
		resp, _ := get(t, srv, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	_, body := get(t, srv, "/fragment")
	assert.Contains(t, body, "This page last updated "+snapshot.ScrapedAt.Format("01-02-2006"))
}

func TestListDates(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	q := url.Values{}
	q.Set("start", "Feb 1 2021")
	q.Set("days", "14")
	q.Add("event", "tuesday@6:00 PM")
	q.Add("event", "3@5:30 PM")

	resp, body := get(t, srv, "/api/v1/dates?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got DatesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Feb 01 2021", got.Start)
	assert.Equal(t, 14, got.Days)
	assert.Equal(t, []dates.Occurrence{
		{Weekday: "Tuesday", Date: "Feb 02 2021", Time: "6:00 PM"},
		{Weekday: "Tuesday", Date: "Feb 09 2021", Time: "6:00 PM"},
		{Weekday: "Thursday", Date: "Feb 04 2021", Time: "5:30 PM"},
		{Weekday: "Thursday", Date: "Feb 11 2021", Time: "5:30 PM"},
	}, got.Occurrences)
}

func TestListDates_DefaultsAndICS(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	q := url.Values{}
	q.Add("event", "tuesday")
	q.Set("format", "ics")
	q.Set("summary", "Colloquium")

	resp, body := get(t, srv, "/api/v1/dates?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, 15, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Colloquium")
	assert.Contains(t, body, "DTSTART:20210202T180000Z")
}

func TestListDates_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"no event", "days=7"},
		{"bad start", "start=2021-02-01&event=tuesday"},
		{"bad days", "days=lots&event=tuesday"},
		{"too many days", "days=100000&event=tuesday"},
		{"bad weekday", "event=someday"},
		{"bad time", "event=" + url.QueryEscape("tuesday@18:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv, "/api/v1/dates?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, "error")
		})
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://geo.example.edu")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
