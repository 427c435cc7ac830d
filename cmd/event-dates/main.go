package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/maltedev/course-catalog-scraper/internal/config"
	"github.com/maltedev/course-catalog-scraper/internal/dates"
	"github.com/maltedev/course-catalog-scraper/internal/logger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-dates",
		Short: "List the dates a weekly event falls on",
		Long: `event-dates prints every date within a window that falls on the given weekdays,
each with the event's time of day, ready to paste into the department calendar.

Events are written as weekday@time, for example "tuesday@6:00 PM". The weekday may
also be an index with Monday as 0 and Sunday as 6.`,
		Example:      `  event-dates --start "Feb 1 2021" --days 100 -e "tuesday@6:00 PM" -e "thursday@6:00 PM"`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := cmd.Flags()
	f.String("start", "", `First day of the window, like "Feb 1 2021"`)
	f.Int("days", -1, "Number of days in the window")
	f.StringArrayP("event", "e", nil, `Weekly event as weekday@time (default "tuesday@6:00 PM" and "thursday@6:00 PM")`)
	f.String("ics", "", "Also write the occurrences as an iCalendar file")
	f.String("summary", "", "Event title used in the iCalendar file")
	f.String("location", "", "Event location used in the iCalendar file")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging.Level, cfg.Logging.Format))

	f := cmd.Flags()
	startStr, _ := f.GetString("start")
	if startStr == "" {
		startStr = cfg.Events.Start
	}
	numDays, _ := f.GetInt("days")
	if numDays < 0 {
		numDays = cfg.Events.NumDays
	}
	rawEvents, _ := f.GetStringArray("event")
	if len(rawEvents) == 0 {
		rawEvents = []string{"tuesday@" + dates.DefaultTime, "thursday@" + dates.DefaultTime}
	}

	start, err := dates.ParseStart(startStr)
	if err != nil {
		return err
	}

	specs := make([]dates.EventSpec, 0, len(rawEvents))
	for _, raw := range rawEvents {
		spec, err := dates.ParseEventSpec(raw)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	days := dates.Range(start, numDays)
	if err := writeLists(cmd.OutOrStdout(), specs, days); err != nil {
		return err
	}

	icsPath, _ := f.GetString("ics")
	if icsPath == "" {
		return nil
	}

	loc, err := time.LoadLocation(cfg.Events.TimeZone)
	if err != nil {
		return fmt.Errorf("failed to load time zone %q: %w", cfg.Events.TimeZone, err)
	}
	summary, _ := f.GetString("summary")
	location, _ := f.GetString("location")

	file, err := os.Create(icsPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	err = dates.WriteICS(file, specs, days, dates.ICSOptions{
		Summary:  summary,
		Location: location,
		Duration: cfg.Events.Duration,
		TimeZone: loc,
	})
	if err != nil {
		return err
	}

	slog.Info("written calendar", "path", icsPath, "events", len(dates.Occurrences(specs, days)))
	return nil
}

func writeLists(w io.Writer, specs []dates.EventSpec, days []time.Time) error {
	for _, spec := range specs {
		if err := dates.WriteList(w, spec, dates.OnWeekday(days, spec.Weekday)); err != nil {
			return err
		}
	}
	return nil
}
