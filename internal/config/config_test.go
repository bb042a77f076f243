package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.IndexNeighbors != 100 {
		t.Errorf("expected 100 index neighbors, got %d", cfg.IndexNeighbors)
	}
	if cfg.DefaultTopN != 3 {
		t.Errorf("expected top-n 3, got %d", cfg.DefaultTopN)
	}
	if cfg.AppointmentDuration != 60*time.Minute {
		t.Errorf("expected 60m appointment duration, got %s", cfg.AppointmentDuration)
	}
	if cfg.ConflictBuffer != 55*time.Minute {
		t.Errorf("expected 55m conflict buffer, got %s", cfg.ConflictBuffer)
	}
	if cfg.ClinicTimezone != "US/Pacific" {
		t.Errorf("expected US/Pacific clinic timezone, got %s", cfg.ClinicTimezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFLICT_BUFFER", "30m")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("MATCH_TOP_N", "5")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port override 9090, got %s", cfg.Port)
	}
	if cfg.ConflictBuffer != 30*time.Minute {
		t.Errorf("expected 30m buffer, got %s", cfg.ConflictBuffer)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.DefaultTopN != 5 {
		t.Errorf("expected top-n 5, got %d", cfg.DefaultTopN)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("APPOINTMENT_DURATION", "not-a-duration")

	cfg := Load()
	if cfg.AppointmentDuration != 60*time.Minute {
		t.Errorf("expected fallback 60m, got %s", cfg.AppointmentDuration)
	}
}
