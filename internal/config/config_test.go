package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadDefaults verifies that an empty environment and no file yields
// the documented defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "5050" {
		t.Errorf("port = %q, want 5050", cfg.Port)
	}
	if cfg.Map.RadiusMeters != DefaultRadiusMeters {
		t.Errorf("radius = %v, want %v", cfg.Map.RadiusMeters, DefaultRadiusMeters)
	}
	if cfg.Map.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("refresh = %v, want %v", cfg.Map.RefreshSeconds, DefaultRefreshSeconds)
	}
	if cfg.Map.OriginLat != nil {
		t.Error("origin should be unset by default")
	}
}

// TestLoadYAMLFile verifies YAML values are picked up.
func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: \"8080\"\nmap:\n  radius_meters: 5000\n  refresh_seconds: 30\n  origin_lat: 48.8566\n  origin_lng: 2.3522\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Map.RadiusMeters != 5000 {
		t.Errorf("radius = %v, want 5000", cfg.Map.RadiusMeters)
	}
	if cfg.Map.OriginLat == nil || *cfg.Map.OriginLat != 48.8566 {
		t.Errorf("origin lat = %v, want 48.8566", cfg.Map.OriginLat)
	}
}

// TestLoadEnvOverridesFile verifies env beats YAML.
func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"8080\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9999")
	t.Setenv("MAP_RADIUS_METERS", "2500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("port = %q, want 9999", cfg.Port)
	}
	if cfg.Map.RadiusMeters != 2500 {
		t.Errorf("radius = %v, want 2500", cfg.Map.RadiusMeters)
	}
}

// TestValidateRejectsHalfOrigin verifies that setting only one origin
// component is an error.
func TestValidateRejectsHalfOrigin(t *testing.T) {
	t.Setenv("MAP_ORIGIN_LAT", "48.8566")

	if _, err := Load(""); err == nil {
		t.Error("expected error for origin_lat without origin_lng")
	}
}

// TestValidateRejectsBadOrigin verifies out-of-range origins fail.
func TestValidateRejectsBadOrigin(t *testing.T) {
	t.Setenv("MAP_ORIGIN_LAT", "120")
	t.Setenv("MAP_ORIGIN_LNG", "0")

	if _, err := Load(""); err == nil {
		t.Error("expected error for out-of-range origin")
	}
}
