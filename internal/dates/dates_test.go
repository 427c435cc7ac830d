package dates

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStart(t *testing.T) time.Time {
	t.Helper()
	start, err := ParseStart(DefaultStart)
	require.NoError(t, err)
	return start
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"Feb 1 2021", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"Feb 01 2021", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{" Dec 31 2020 ", time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"2021-02-01", time.Time{}, true},
		{"Feb 30 2021", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStart(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestRange(t *testing.T) {
	start := mustStart(t)

	days := Range(start, DefaultNumDays)
	require.Len(t, days, 100)
	assert.Equal(t, start, days[0])
	assert.Equal(t, "May 11 2021", FormatDate(days[99]))

	assert.Empty(t, Range(start, 0))
	assert.Empty(t, Range(start, -3))
}

func TestOnWeekday(t *testing.T) {
	days := Range(mustStart(t), DefaultNumDays)

	tuesdays := OnWeekday(days, time.Tuesday)
	require.Len(t, tuesdays, 15)
	assert.Equal(t, "Feb 02 2021", FormatDate(tuesdays[0]))
	assert.Equal(t, "Feb 09 2021", FormatDate(tuesdays[1]))
	for _, d := range tuesdays {
		assert.Equal(t, time.Tuesday, d.Weekday())
	}

	thursdays := OnWeekday(days, time.Thursday)
	require.Len(t, thursdays, 14)
	assert.Equal(t, "Feb 04 2021", FormatDate(thursdays[0]))

	assert.Empty(t, OnWeekday(Range(mustStart(t), 1), time.Tuesday))
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{"tuesday", time.Tuesday, false},
		{"Thursday", time.Thursday, false},
		{"SAT", time.Saturday, false},
		{"0", time.Monday, false},
		{"1", time.Tuesday, false},
		{"3", time.Thursday, false},
		{"6", time.Sunday, false},
		{"7", 0, true},
		{"-1", 0, true},
		{"tues", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeekday)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEventSpec(t *testing.T) {
	spec, err := ParseEventSpec("tuesday@6:00 PM")
	require.NoError(t, err)
	assert.Equal(t, EventSpec{Weekday: time.Tuesday, Time: "6:00 PM"}, spec)
	assert.Equal(t, "tuesday@6:00 PM", spec.String())

	spec, err = ParseEventSpec("3")
	require.NoError(t, err)
	assert.Equal(t, EventSpec{Weekday: time.Thursday, Time: DefaultTime}, spec)

	_, err = ParseEventSpec("tuesday@18:00")
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = ParseEventSpec("someday@6:00 PM")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestEventSpecAt(t *testing.T) {
	spec := EventSpec{Weekday: time.Tuesday, Time: "6:30 PM"}

	got, err := spec.At(time.Date(2021, 2, 2, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 2, 18, 30, 0, 0, time.UTC), got)
}

func TestOccurrences(t *testing.T) {
	days := Range(mustStart(t), 7)
	specs := []EventSpec{
		{Weekday: time.Thursday, Time: "6:00 PM"},
		{Weekday: time.Tuesday, Time: "5:00 PM"},
	}

	got := Occurrences(specs, days)
	assert.Equal(t, []Occurrence{
		{Weekday: "Thursday", Date: "Feb 04 2021", Time: "6:00 PM"},
		{Weekday: "Tuesday", Date: "Feb 02 2021", Time: "5:00 PM"},
	}, got)

	assert.Empty(t, Occurrences(nil, days))
}

func TestWriteList(t *testing.T) {
	days := OnWeekday(Range(mustStart(t), 14), time.Tuesday)
	var buf bytes.Buffer

	require.NoError(t, WriteList(&buf, EventSpec{Weekday: time.Tuesday, Time: "6:00 PM"}, days))

	want := "Dates that fall on Tuesday for time specified\n" +
		"Feb 02 2021, 6:00 PM\n" +
		"Feb 09 2021, 6:00 PM\n" +
		"\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteList_EmptyStillNamesWeekday(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteList(&buf, EventSpec{Weekday: time.Sunday, Time: "6:00 PM"}, nil))

	assert.True(t, strings.HasPrefix(buf.String(), "Dates that fall on Sunday for time specified\n"))
}

func TestWriteICS(t *testing.T) {
	days := Range(mustStart(t), 7)
	specs := []EventSpec{
		{Weekday: time.Tuesday, Time: "6:00 PM"},
		{Weekday: time.Thursday, Time: "6:00 PM"},
	}

	var buf bytes.Buffer
	err := WriteICS(&buf, specs, days, ICSOptions{
		Summary:  "Geosciences Colloquium",
		Location: "Morrill 131",
		Duration: 90 * time.Minute,
		TimeZone: time.UTC,
		Now:      time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Geosciences Colloquium")
	assert.Contains(t, out, "LOCATION:Morrill 131")
	assert.Contains(t, out, "DTSTART:20210202T180000Z")
	assert.Contains(t, out, "DTEND:20210202T193000Z")
	assert.Contains(t, out, "DTSTART:20210204T180000Z")
	assert.Contains(t, out, "METHOD:PUBLISH")
}

func TestWriteICS_InvalidTime(t *testing.T) {
	days := Range(mustStart(t), 7)

	err := WriteICS(&bytes.Buffer{}, []EventSpec{{Weekday: time.Tuesday, Time: "late"}}, days, ICSOptions{})
	assert.ErrorIs(t, err, ErrInvalidTime)
}
