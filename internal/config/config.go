package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/models"
)

const (
	NavigatorBrowser = "browser"
	NavigatorHTTP    = "http"

	StorageFile  = "file"
	StorageRedis = "redis"
	StorageNone  = "none"
)

type Config struct {
	Catalog  CatalogConfig
	Browser  BrowserConfig
	Scraper  ScraperConfig
	Output   OutputConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Server   ServerConfig
	Events   EventsConfig
	Logging  LoggingConfig
}

type CatalogConfig struct {
	BaseURL      string
	Semester     string
	Year         string
	Institution  string
	SubjectQuery string
	RowSelector  string
	NextSelector string
}

func (c CatalogConfig) Term() models.Term {
	return models.Term{
		Semester:     strings.ToUpper(c.Semester),
		Year:         c.Year,
		Institution:  c.Institution,
		SubjectQuery: c.SubjectQuery,
	}
}

type BrowserConfig struct {
	Engine         string
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	Proxy          string
}

type ScraperConfig struct {
	Navigator    string
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	MaxRetries   int
	MaxPages     int
}

type OutputConfig struct {
	Path   string
	Escape bool
}

type StorageConfig struct {
	Backend string
	Dir     string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type EventsConfig struct {
	Start    string
	NumDays  int
	TimeZone string
	Duration time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Catalog: CatalogConfig{
			BaseURL:      getEnvOrDefault("CATALOG_BASE_URL", "https://www.fivecolleges.edu/academics/courses"),
			Semester:     getEnvOrDefault("CATALOG_SEMESTER", models.SemesterFall),
			Year:         getEnvOrDefault("CATALOG_YEAR", strconv.Itoa(time.Now().Year())),
			Institution:  getEnvOrDefault("CATALOG_INSTITUTION", models.DefaultInstitution),
			SubjectQuery: getEnvOrDefault("CATALOG_SUBJECT_QUERY", models.DefaultSubjectQuery),
			RowSelector:  getEnvOrDefault("CATALOG_ROW_SELECTOR", ""),
			NextSelector: getEnvOrDefault("CATALOG_NEXT_SELECTOR", ""),
		},
		Browser: BrowserConfig{
			Engine:         getEnvOrDefault("BROWSER_ENGINE", "firefox"),
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1200),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", ""),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			Proxy:          getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Scraper: ScraperConfig{
			Navigator:    getEnvOrDefault("SCRAPER_NAVIGATOR", NavigatorBrowser),
			RateLimitMin: getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", time.Second),
			RateLimitMax: getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 3*time.Second),
			MaxRetries:   getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			MaxPages:     getIntOrDefault("SCRAPER_MAX_PAGES", 0),
		},
		Output: OutputConfig{
			Path:   getEnvOrDefault("OUTPUT_PATH", "courses.html"),
			Escape: getBoolOrDefault("OUTPUT_ESCAPE", false),
		},
		Storage: StorageConfig{
			Backend: getEnvOrDefault("STORAGE_BACKEND", StorageFile),
			Dir:     getEnvOrDefault("STORAGE_DIR", defaultCacheDir()),
			TTL:     getDurationOrDefault("STORAGE_TTL", 12*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "course_catalog"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: getIntOrDefault("DB_MAX_CONNS", 5),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Events: EventsConfig{
			Start:    getEnvOrDefault("EVENTS_START", "Feb 1 2021"),
			NumDays:  getIntOrDefault("EVENTS_NUM_DAYS", 100),
			TimeZone: getEnvOrDefault("EVENTS_TIMEZONE", "America/New_York"),
			Duration: getDurationOrDefault("EVENTS_DURATION", time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Catalog.Term().Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	switch c.Scraper.Navigator {
	case NavigatorBrowser, NavigatorHTTP:
	default:
		return fmt.Errorf("SCRAPER_NAVIGATOR must be %q or %q", NavigatorBrowser, NavigatorHTTP)
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("SCRAPER_RATE_LIMIT_MIN cannot be greater than SCRAPER_RATE_LIMIT_MAX")
	}

	if c.Scraper.MaxRetries < 1 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be at least 1")
	}

	if c.Scraper.MaxPages < 0 {
		return fmt.Errorf("SCRAPER_MAX_PAGES cannot be negative")
	}

	switch c.Storage.Backend {
	case StorageFile, StorageRedis, StorageNone:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s", StorageFile, StorageRedis, StorageNone)
	}

	if c.Output.Path == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}

	if c.Events.NumDays < 0 {
		return fmt.Errorf("EVENTS_NUM_DAYS cannot be negative")
	}

	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "course-catalog-scraper"
	}
	return ".cache"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
