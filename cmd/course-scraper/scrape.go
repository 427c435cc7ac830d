package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maltedev/course-catalog-scraper/internal/browser"
	"github.com/maltedev/course-catalog-scraper/internal/config"
	"github.com/maltedev/course-catalog-scraper/internal/filter"
	"github.com/maltedev/course-catalog-scraper/internal/models"
	"github.com/maltedev/course-catalog-scraper/internal/parser"
	"github.com/maltedev/course-catalog-scraper/internal/ratelimit"
	"github.com/maltedev/course-catalog-scraper/internal/render"
	"github.com/maltedev/course-catalog-scraper/internal/scraper"
	"github.com/maltedev/course-catalog-scraper/internal/storage"
	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one semester and append the course listing to the output file",
		RunE:  runScrape,
	}

	f := cmd.Flags()
	f.StringP("semester", "s", "", "Semester: F (fall) or S (spring)")
	f.StringP("year", "y", "", "Four digit year")
	f.String("institution", "", "Institution code (U = UMass Amherst)")
	f.String("subject-query", "", "Subject name search text")
	f.StringP("output", "o", "", "HTML file the listing is appended to")
	f.String("navigator", "", "Page loader: browser or http")
	f.Int("max-pages", -1, "Stop after this many result pages (0 = no limit)")
	f.Bool("refresh", false, "Ignore a cached snapshot and scrape again")
	f.Bool("archive", false, "Archive the scraped courses in PostgreSQL")
	f.Bool("escape", false, "HTML-escape scraped text in the output")

	return cmd
}

func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if v, _ := f.GetString("semester"); v != "" {
		cfg.Catalog.Semester = v
	}
	if v, _ := f.GetString("year"); v != "" {
		cfg.Catalog.Year = v
	}
	if v, _ := f.GetString("institution"); v != "" {
		cfg.Catalog.Institution = v
	}
	if v, _ := f.GetString("subject-query"); v != "" {
		cfg.Catalog.SubjectQuery = v
	}
	if v, _ := f.GetString("output"); v != "" {
		cfg.Output.Path = v
	}
	if v, _ := f.GetString("navigator"); v != "" {
		cfg.Scraper.Navigator = v
	}
	if v, _ := f.GetInt("max-pages"); v >= 0 {
		cfg.Scraper.MaxPages = v
	}
	if v, _ := f.GetBool("archive"); v {
		cfg.Database.Enabled = true
	}
	if v, _ := f.GetBool("escape"); v {
		cfg.Output.Escape = true
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	applyScrapeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := slog.Default().With("component", "scrape")
	refresh, _ := cmd.Flags().GetBool("refresh")

	ctx, cancel := signalContext()
	defer cancel()

	term := cfg.Catalog.Term()
	termKey := term.Key()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer closeStore()

	var snapshot *models.Snapshot
	if store != nil && !refresh {
		snapshot, err = store.Load(ctx, termKey)
		switch {
		case err == nil:
			log.Info("using cached snapshot", "term", termKey, "run_id", snapshot.RunID, "scraped_at", snapshot.ScrapedAt)
		case errors.Is(err, storage.ErrCacheMiss):
			log.Debug("no cached snapshot", "term", termKey)
		default:
			log.Warn("failed to read cached snapshot", "error", err)
		}
	}

	if snapshot == nil {
		snapshot, err = crawlTerm(ctx, cfg, term)
		if err != nil {
			return err
		}

		if store != nil {
			if err := store.Save(ctx, termKey, snapshot); err != nil {
				log.Warn("failed to cache snapshot", "error", err)
			}
		}
	}

	if cfg.Database.Enabled {
		if err := archiveSnapshot(ctx, cfg, termKey, snapshot); err != nil {
			return err
		}
		log.Info("archived courses", "term", termKey, "count", len(snapshot.Courses))
	}

	groups := filter.Partition(snapshot.Catalog(), filter.DefaultGroups())
	for _, g := range groups {
		log.Info("filtered courses", "subject", g.Subject, "count", len(g.Courses))
	}

	// A cached listing is dated by its scrape, not by this run.
	renderer := &render.Renderer{Escape: cfg.Output.Escape}
	if err := renderer.AppendToFile(cfg.Output.Path, groups, snapshot.ScrapedAt); err != nil {
		return err
	}

	log.Info("written course listing", "path", cfg.Output.Path, "courses", len(snapshot.Courses))
	return nil
}

func crawlTerm(ctx context.Context, cfg *config.Config, term models.Term) (*models.Snapshot, error) {
	nav, err := newNavigator(cfg)
	if err != nil {
		return nil, err
	}

	crawler := scraper.NewCatalogCrawler(nav,
		parser.NewCatalogParser(cfg.Catalog.RowSelector, cfg.Catalog.NextSelector),
		scraper.CrawlerOptions{
			MaxPages: cfg.Scraper.MaxPages,
			Limiter:  ratelimit.NewPageLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax),
			Logger:   slog.Default(),
		})
	defer crawler.Close()

	startURL := scraper.BuildQueryURL(cfg.Catalog.BaseURL, term)

	result, err := crawler.Crawl(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	return models.NewSnapshot(uuid.NewString(), term, startURL, result.Pages, result.Catalog), nil
}

func newNavigator(cfg *config.Config) (scraper.Navigator, error) {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": cfg.Browser.AcceptLanguage,
	}

	if cfg.Scraper.Navigator == config.NavigatorHTTP {
		return scraper.NewHTTPNavigator(scraper.HTTPOptions{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.Browser.Timeout,
			Headers:   headers,
		}), nil
	}

	opts := browser.DefaultOptions()
	opts.Engine = cfg.Browser.Engine
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.Locale = cfg.Browser.Locale
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.ProxyServer = cfg.Browser.Proxy
	opts.ExtraHeaders = headers
	if cfg.Browser.UserAgent != "" {
		opts.UserAgent = cfg.Browser.UserAgent
	}

	b, err := browser.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	waitSelector := cfg.Catalog.RowSelector
	if waitSelector == "" {
		waitSelector = parser.DefaultRowSelector
	}

	nav, err := scraper.NewBrowserNavigator(b, waitSelector, cfg.Scraper.MaxRetries)
	if err != nil {
		b.Close()
		return nil, err
	}

	return nav, nil
}

func archiveSnapshot(ctx context.Context, cfg *config.Config, termKey string, snapshot *models.Snapshot) error {
	db, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := snapshot.RunID
	if _, err := uuid.Parse(runID); err != nil {
		runID = uuid.NewString()
	}

	if err := db.UpsertCourses(ctx, termKey, runID, snapshot.Courses); err != nil {
		return fmt.Errorf("failed to archive courses: %w", err)
	}
	return nil
}
