package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/course-catalog-scraper/internal/config"
	"github.com/maltedev/course-catalog-scraper/internal/database"
	"github.com/maltedev/course-catalog-scraper/internal/logger"
	"github.com/maltedev/course-catalog-scraper/internal/storage"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course-scraper",
		Short: "Scrape the Five College course catalog into an HTML course listing",
		Long: `course-scraper pulls one semester of courses from the Five College catalog search,
groups them by subject and appends the listing as an HTML fragment to a file.
It can also serve the latest scraped listing over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			level, _ := cmd.Flags().GetString("log-level")
			if level != "" {
				cfg.Logging.Level = level
			}

			slog.SetDefault(logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))
			return nil
		},
	}

	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.AddCommand(newScrapeCmd(), newServeCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore returns a nil store when caching is disabled. The returned close func is never nil.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageNone:
		return nil, func() {}, nil
	case config.StorageRedis:
		client, err := storage.DialRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewRedisStore(client, cfg.Storage.TTL)
		return store, func() { store.Close() }, nil
	default:
		store, err := storage.NewFileStore(cfg.Storage.Dir, cfg.Storage.TTL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func openArchive(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: int32(cfg.Database.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
