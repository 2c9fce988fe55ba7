package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Output
	OutputDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Fetching
	FetchTimeout    time.Duration
	FetchRetries    int
	FetchRatePerSec float64
	UserAgent       string
	MaxPageBytes    int64

	// Extraction
	ContentClass   string
	RawHeadings    bool
	ParagraphsOnly bool

	// Batch input
	BooksFile string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("FB2FETCH_API_KEY"),

		OutputDir: envOr("OUTPUT_DIR", "."),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		FetchTimeout:    envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRetries:    envInt("FETCH_RETRIES", 3),
		FetchRatePerSec: envFloat("FETCH_RATE_PER_SEC", 1),
		UserAgent:       envOr("USER_AGENT", "fb2fetch/1.0"),
		MaxPageBytes:    envInt64("MAX_PAGE_BYTES", 33554432), // 32MB

		ContentClass:   envOr("CONTENT_CLASS", "book"),
		RawHeadings:    envBool("RAW_HEADINGS", false),
		ParagraphsOnly: envBool("PARAGRAPHS_ONLY", false),

		BooksFile: envOr("BOOKS_FILE", "books.yaml"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = 3
	}
	if cfg.MaxPageBytes <= 0 {
		cfg.MaxPageBytes = 33554432
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings shared by every entry point.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.ContentClass == "" {
		return fmt.Errorf("CONTENT_CLASS must not be empty")
	}
	if c.FetchRatePerSec < 0 {
		return fmt.Errorf("FETCH_RATE_PER_SEC must not be negative")
	}
	return nil
}

// ValidateServer additionally requires the settings the HTTP API needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("FB2FETCH_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
