package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Providers
		Enrichment
		Covers
		Tasks
		Viewer
		Library
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Providers struct {
		LibriVoxBaseURL    string
		GutendexBaseURL    string
		GoogleBooksBaseURL string
		OpenLibraryBaseURL string
		GoogleBooksAPIKey  string
		RequestTimeout     time.Duration // per-request timeout for every upstream call
		AudioPageSize      int
	}
	Enrichment struct {
		LookupsPerSecond float64
		FallbackEnabled  bool // ask OpenLibrary when Google Books has no cover
	}
	Covers struct {
		Dir           string
		PruneSchedule string // Cron format: "0 3 * * *" = daily at 03:00
		MaxAge        time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Viewer struct {
		SessionLifetime time.Duration // also the idle TTL of a viewer's workspace
		SecureCookies   bool          // Set to false for local dev without HTTPS
		SweepInterval   time.Duration
	}
	Library struct {
		RecentSearchesLimit int
	}
)

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are left untouched; a missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("Failed to load %s: %v", f, err)
		}
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Upstream providers
	v.SetDefault("librivox_base_url", DefaultLibriVoxBaseURL)
	v.SetDefault("gutendex_base_url", DefaultGutendexBaseURL)
	v.SetDefault("google_books_base_url", DefaultGoogleBooksBaseURL)
	v.SetDefault("openlibrary_base_url", DefaultOpenLibraryBaseURL)
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("audio_page_size", 20)

	// Cover enrichment
	v.SetDefault("cover_lookups_per_second", 5)
	v.SetDefault("cover_fallback_enabled", true)

	// Cover cache
	v.SetDefault("covers_dir", DefaultCoversDir)
	v.SetDefault("cover_prune_schedule", "0 3 * * *")
	v.SetDefault("cover_max_age", "720h") // 30 days

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Viewer sessions
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("workspace_sweep_interval", "5m")

	v.SetDefault("recent_searches_limit", 10)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Providers: Providers{
			LibriVoxBaseURL:    v.GetString("LIBRIVOX_BASE_URL"),
			GutendexBaseURL:    v.GetString("GUTENDEX_BASE_URL"),
			GoogleBooksBaseURL: v.GetString("GOOGLE_BOOKS_BASE_URL"),
			OpenLibraryBaseURL: v.GetString("OPENLIBRARY_BASE_URL"),
			GoogleBooksAPIKey:  v.GetString("GOOGLE_BOOKS_API_KEY"),
			RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
			AudioPageSize:      v.GetInt("AUDIO_PAGE_SIZE"),
		},
		Enrichment: Enrichment{
			LookupsPerSecond: v.GetFloat64("COVER_LOOKUPS_PER_SECOND"),
			FallbackEnabled:  v.GetBool("COVER_FALLBACK_ENABLED"),
		},
		Covers: Covers{
			Dir:           v.GetString("COVERS_DIR"),
			PruneSchedule: v.GetString("COVER_PRUNE_SCHEDULE"),
			MaxAge:        v.GetDuration("COVER_MAX_AGE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Viewer: Viewer{
			SessionLifetime: v.GetDuration("SESSION_LIFETIME"),
			SecureCookies:   v.GetBool("SECURE_COOKIES"),
			SweepInterval:   v.GetDuration("WORKSPACE_SWEEP_INTERVAL"),
		},
		Library: Library{
			RecentSearchesLimit: v.GetInt("RECENT_SEARCHES_LIMIT"),
		},
	}
}
