package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medremind/pkg/timeutil"
)

type Config struct {
	App      AppConfig
	Reminder ReminderConfig
	Storage  StorageConfig
	Log      LogConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ReminderConfig struct {
	// DoseAnchor is the wall-clock time the first dose of each day is
	// scheduled at; dose N is due at DoseAnchor + N * interval.
	DoseAnchor time.Duration
	// AppointmentBuffer widens the window during which an appointment
	// reminder counts as due before its start time.
	AppointmentBuffer time.Duration
	// ExpiryGrace is how far past its date an unacknowledged reminder
	// may drift before refresh archives it.
	ExpiryGrace time.Duration
	// RefreshInterval drives the periodic re-evaluation loop.
	RefreshInterval time.Duration
}

type StorageConfig struct {
	DataDir           string
	StateFile         string
	PrescriptionsFile string
	JournalFile       string
}

func (s StorageConfig) StatePath() string {
	return filepath.Join(s.DataDir, s.StateFile)
}

func (s StorageConfig) PrescriptionsPath() string {
	return filepath.Join(s.DataDir, s.PrescriptionsFile)
}

func (s StorageConfig) JournalPath() string {
	return filepath.Join(s.DataDir, s.JournalFile)
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	JaegerURL   string
	SampleRate  float64
}

func Load() (*Config, error) {
	anchor, err := timeutil.ParseClock(getEnv("REMINDER_DOSE_ANCHOR", "07:00"))
	if err != nil {
		return nil, fmt.Errorf("REMINDER_DOSE_ANCHOR: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "medremind"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Reminder: ReminderConfig{
			DoseAnchor:        anchor,
			AppointmentBuffer: getEnvDuration("REMINDER_APPOINTMENT_BUFFER", 30*time.Minute),
			ExpiryGrace:       getEnvDuration("REMINDER_EXPIRY_GRACE", 24*time.Hour),
			RefreshInterval:   getEnvDuration("REMINDER_REFRESH_INTERVAL", time.Minute),
		},
		Storage: StorageConfig{
			DataDir:           getEnv("STORAGE_DATA_DIR", "."),
			StateFile:         getEnv("STORAGE_STATE_FILE", "reminder_state.json"),
			PrescriptionsFile: getEnv("STORAGE_PRESCRIPTIONS_FILE", "prescriptions.json"),
			JournalFile:       getEnv("STORAGE_JOURNAL_FILE", "reminder_journal.jsonl"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "medremind"),
			JaegerURL:   getEnv("JAEGER_ENDPOINT", "http://jaeger-collector:14268/api/traces"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Reminder.DoseAnchor < 0 || cfg.Reminder.DoseAnchor >= timeutil.Day {
		errs = append(errs, "REMINDER_DOSE_ANCHOR must fall within a day")
	}
	if cfg.Reminder.AppointmentBuffer < 0 {
		errs = append(errs, "REMINDER_APPOINTMENT_BUFFER must not be negative")
	}
	if cfg.Reminder.ExpiryGrace < 0 {
		errs = append(errs, "REMINDER_EXPIRY_GRACE must not be negative")
	}
	if cfg.Reminder.RefreshInterval < time.Second {
		errs = append(errs, "REMINDER_REFRESH_INTERVAL must be at least 1s")
	}
	if cfg.Storage.DataDir == "" {
		errs = append(errs, "STORAGE_DATA_DIR is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
