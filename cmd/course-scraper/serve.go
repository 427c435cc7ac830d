package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/api"
	"github.com/maltedev/course-catalog-scraper/internal/config"
	"github.com/maltedev/course-catalog-scraper/internal/render"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest scraped listing over HTTP",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default SERVER_HOST:SERVER_PORT)")
	cmd.Flags().StringP("semester", "s", "", "Semester served when a request names no term")
	cmd.Flags().StringP("year", "y", "", "Year served when a request names no term")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetString("semester"); v != "" {
		cfg.Catalog.Semester = v
	}
	if v, _ := cmd.Flags().GetString("year"); v != "" {
		cfg.Catalog.Year = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Storage.Backend == config.StorageNone {
		return errors.New("serve needs a snapshot store, set STORAGE_BACKEND to file or redis")
	}

	log := slog.Default().With("component", "server")

	ctx, cancel := signalContext()
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer closeStore()

	opts := api.Options{
		TermKey:  cfg.Catalog.Term().Key(),
		Renderer: &render.Renderer{Escape: cfg.Output.Escape},
		Events: api.EventDefaults{
			Start:    cfg.Events.Start,
			NumDays:  cfg.Events.NumDays,
			TimeZone: loadLocation(cfg.Events.TimeZone),
			Duration: cfg.Events.Duration,
		},
	}

	if cfg.Database.Enabled {
		db, err := openArchive(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Archive = db
	}

	handlers := api.NewHandlers(store, opts, slog.Default())
	router := api.NewRouter(handlers, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.WriteTimeout,
	})

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("server starting", "addr", addr, "term", opts.TermKey)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown time zone, using local time", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}
