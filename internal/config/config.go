package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Monitor MonitorConfig
	Sheets  SheetsConfig
	Stub    StubConfig
}

// APIConfig holds options for reaching the guild backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig locates the durable session file.
type SessionConfig struct {
	Path string
}

// MonitorConfig holds the stock monitor settings.
type MonitorConfig struct {
	CronSchedule string
	MinCantidad  float64
	MaxCantidad  float64
}

// SheetsConfig contains configuration required to export listings to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// StubConfig holds options for the local stub API server.
type StubConfig struct {
	Port      string
	JWTSecret string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeout, err := parseDuration("CONSOLA_HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	minCantidad, err := parseFloat("MONITOR_MIN_CANTIDAD", 0)
	if err != nil {
		return nil, err
	}
	maxCantidad, err := parseFloat("MONITOR_MAX_CANTIDAD", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getenvWithDefault("CONSOLA_API_BASE_URL", "http://localhost:8080/api"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Path: getenvWithDefault("CONSOLA_SESSION_PATH", defaultSessionPath()),
		},
		Monitor: MonitorConfig{
			CronSchedule: getenvWithDefault("MONITOR_CRON_SCHEDULE", "*/10 * * * *"),
			MinCantidad:  minCantidad,
			MaxCantidad:  maxCantidad,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Stub: StubConfig{
			Port:      getenvWithDefault("STUB_PORT", "8080"),
			JWTSecret: getenvWithDefault("STUB_JWT_SECRET", "consola-stub-secret"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.API.BaseURL == "" {
		return errors.New("CONSOLA_API_BASE_URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		return errors.New("CONSOLA_HTTP_TIMEOUT must be positive")
	}
	if c.Session.Path == "" {
		return errors.New("CONSOLA_SESSION_PATH must not be empty")
	}
	if c.Monitor.CronSchedule == "" {
		return errors.New("MONITOR_CRON_SCHEDULE must be provided")
	}
	if c.Monitor.MaxCantidad < c.Monitor.MinCantidad {
		return errors.New("MONITOR_MAX_CANTIDAD must not be below MONITOR_MIN_CANTIDAD")
	}
	if c.Stub.Port == "" {
		return errors.New("STUB_PORT must not be empty")
	}
	if c.Stub.JWTSecret == "" {
		return errors.New("STUB_JWT_SECRET must not be empty")
	}

	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".consola-session.json")
	}
	return filepath.Join(home, ".config", "consola", "session.json")
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", key, err)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in %s: %w", key, err)
	}
	return f, nil
}
