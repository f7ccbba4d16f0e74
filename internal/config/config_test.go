package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Reminder.DoseAnchor != 7*time.Hour {
		t.Errorf("DoseAnchor = %v, want 7h", cfg.Reminder.DoseAnchor)
	}
	if cfg.Reminder.AppointmentBuffer != 30*time.Minute {
		t.Errorf("AppointmentBuffer = %v, want 30m", cfg.Reminder.AppointmentBuffer)
	}
	if cfg.Reminder.ExpiryGrace != 24*time.Hour {
		t.Errorf("ExpiryGrace = %v, want 24h", cfg.Reminder.ExpiryGrace)
	}
	if cfg.Storage.StateFile != "reminder_state.json" {
		t.Errorf("StateFile = %q", cfg.Storage.StateFile)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REMINDER_DOSE_ANCHOR", "08:30")
	t.Setenv("REMINDER_APPOINTMENT_BUFFER", "1h")
	t.Setenv("STORAGE_DATA_DIR", "/var/lib/medremind")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if want := 8*time.Hour + 30*time.Minute; cfg.Reminder.DoseAnchor != want {
		t.Errorf("DoseAnchor = %v, want %v", cfg.Reminder.DoseAnchor, want)
	}
	if cfg.Reminder.AppointmentBuffer != time.Hour {
		t.Errorf("AppointmentBuffer = %v, want 1h", cfg.Reminder.AppointmentBuffer)
	}
	if got := cfg.Storage.StatePath(); got != "/var/lib/medremind/reminder_state.json" {
		t.Errorf("StatePath = %q", got)
	}
}

func TestLoadRejectsBadAnchor(t *testing.T) {
	t.Setenv("REMINDER_DOSE_ANCHOR", "25:00")
	if _, err := Load(); err == nil {
		t.Error("no error for an out-of-range dose anchor")
	}
}

func TestLoadRejectsShortRefreshInterval(t *testing.T) {
	t.Setenv("REMINDER_REFRESH_INTERVAL", "100ms")
	if _, err := Load(); err == nil {
		t.Error("no error for a sub-second refresh interval")
	}
}
