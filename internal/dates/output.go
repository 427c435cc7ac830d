package dates

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// WriteList prints the dates for one event, one "Feb 02 2021, 6:00 PM" line each, ready to paste into the site.
func WriteList(w io.Writer, spec EventSpec, days []time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Dates that fall on %s for time specified\n", spec.Weekday)
	for _, d := range days {
		fmt.Fprintf(bw, "%s, %s\n", FormatDate(d), spec.Time)
	}
	bw.WriteString("\n\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write date list: %w", err)
	}
	return nil
}

type ICSOptions struct {
	Summary     string
	Location    string
	Description string
	Duration    time.Duration
	TimeZone    *time.Location
	// Now stamps DTSTAMP. Zero means time.Now.
	Now time.Time
}

// WriteICS writes every occurrence of specs within days as a calendar feed.
func WriteICS(w io.Writer, specs []EventSpec, days []time.Time, opts ICSOptions) error {
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}
	if opts.Summary == "" {
		opts.Summary = "Department event"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, spec := range specs {
		for _, d := range OnWeekday(days, spec.Weekday) {
			start, err := spec.At(d, opts.TimeZone)
			if err != nil {
				return err
			}

			uid := fmt.Sprintf("%s-%s@event-dates", start.UTC().Format("20060102T150405Z"),
				strings.ToLower(spec.Weekday.String()))

			event := cal.AddEvent(uid)
			event.SetDtStampTime(now)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(opts.Duration))
			event.SetSummary(opts.Summary)
			if opts.Location != "" {
				event.SetLocation(opts.Location)
			}
			if opts.Description != "" {
				event.SetDescription(opts.Description)
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
