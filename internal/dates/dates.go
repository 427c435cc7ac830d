package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// StartLayout accepts "Feb 1 2021" as well as "Feb 01 2021".
	StartLayout = "Jan 2 2006"
	DateLayout  = "Jan 02 2006"
	TimeLayout  = "3:04 PM"

	DefaultStart   = "Feb 1 2021"
	DefaultNumDays = 100
	DefaultTime    = "6:00 PM"
)

var (
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrInvalidTime    = errors.New("invalid time of day")
)

func ParseStart(s string) (time.Time, error) {
	t, err := time.Parse(StartLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse start date %q: %w", s, err)
	}
	return t, nil
}

// Range returns numDays consecutive days beginning with start.
func Range(start time.Time, numDays int) []time.Time {
	if numDays <= 0 {
		return nil
	}
	days := make([]time.Time, 0, numDays)
	for i := 0; i < numDays; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

func OnWeekday(days []time.Time, weekday time.Weekday) []time.Time {
	var out []time.Time
	for _, d := range days {
		if d.Weekday() == weekday {
			out = append(out, d)
		}
	}
	return out
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseWeekday accepts full or three-letter English names in any case, or an index from 0 (Monday) to 6 (Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: index %d out of range 0-6", ErrInvalidWeekday, n)
		}
		return time.Weekday((n + 1) % 7), nil
	}

	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && s == name[:3]) {
			return d, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// EventSpec is a weekly event: the weekday it falls on and its time of day as written in listings.
type EventSpec struct {
	Weekday time.Weekday
	Time    string
}

// ParseEventSpec reads "tuesday@6:00 PM". Without an "@" part the time defaults to DefaultTime.
func ParseEventSpec(s string) (EventSpec, error) {
	day, clock, found := strings.Cut(s, "@")
	if !found {
		clock = DefaultTime
	}

	weekday, err := ParseWeekday(day)
	if err != nil {
		return EventSpec{}, err
	}

	spec := EventSpec{Weekday: weekday, Time: strings.TrimSpace(clock)}
	if _, err := spec.clock(); err != nil {
		return EventSpec{}, err
	}

	return spec, nil
}

func (e EventSpec) String() string {
	return strings.ToLower(e.Weekday.String()) + "@" + e.Time
}

func (e EventSpec) clock() (time.Time, error) {
	t, err := time.Parse(TimeLayout, e.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q must look like %q", ErrInvalidTime, e.Time, DefaultTime)
	}
	return t, nil
}

// At combines a day with the event's time of day in loc.
func (e EventSpec) At(day time.Time, loc *time.Location) (time.Time, error) {
	c, err := e.clock()
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

type Occurrence struct {
	Weekday string `json:"weekday"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Occurrences lists every date in days matching each spec, grouped by spec in the order given.
func Occurrences(specs []EventSpec, days []time.Time) []Occurrence {
	out := []Occurrence{}
	for _, spec := range specs {
		for _, d := range OnWeekday(days, spec.Weekday) {
			out = append(out, Occurrence{
				Weekday: spec.Weekday.String(),
				Date:    FormatDate(d),
				Time:    spec.Time,
			})
		}
	}
	return out
}
