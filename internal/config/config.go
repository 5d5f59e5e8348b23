package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// State backends.
const (
	BackendFile      = "file"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string

	// Auth
	BarcoderAPIKey string

	// Stamp geometry, in points
	StampWidth  float64
	StampHeight float64
	StampMargin float64

	// Raster pixels per point
	RasterScale float64

	// State
	StateBackend string
	StateFile    string

	// Pathstore connection
	PathstoreURL      string
	PathstoreAPIKey   string
	PathstoreStateKey string

	// Upload limits
	MaxUploadBytes int64

	// Stats and run records
	StatsWindow time.Duration
	RunTTL      time.Duration

	// Debug enables per-page log lines.
	Debug bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		BarcoderAPIKey: os.Getenv("BARCODER_API_KEY"),

		StampWidth:  envFloat("STAMP_WIDTH", 100),
		StampHeight: envFloat("STAMP_HEIGHT", 50),
		StampMargin: envFloat("STAMP_MARGIN", 10),

		RasterScale: envFloat("RASTER_SCALE", 4),

		StateBackend: envOr("STATE_BACKEND", BackendFile),
		StateFile:    envOr("STATE_FILE", "last_barcode.txt"),

		PathstoreURL:      envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey:   os.Getenv("PATHSTORE_API_KEY"),
		PathstoreStateKey: envOr("PATHSTORE_STATE_KEY", "barcoder/last_barcode"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
		RunTTL:      envDuration("RUN_TTL", 1*time.Hour),

		Debug: envBool("DEBUG", false),
	}

	if cfg.StampWidth <= 0 {
		cfg.StampWidth = 100
	}
	if cfg.StampHeight <= 0 {
		cfg.StampHeight = 50
	}
	if cfg.StampMargin < 0 {
		cfg.StampMargin = 10
	}
	if cfg.RasterScale <= 0 {
		cfg.RasterScale = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the CLI needs.
func (c Config) Validate() error {
	switch c.StateBackend {
	case BackendFile:
		if c.StateFile == "" {
			return fmt.Errorf("STATE_FILE is required for the file backend")
		}
	case BackendPathstore:
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore backend")
		}
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", BackendFile, BackendPathstore, c.StateBackend)
	}
	return nil
}

// ValidateServer additionally requires the API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BarcoderAPIKey == "" {
		return fmt.Errorf("BARCODER_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
