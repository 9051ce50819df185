// Package config loads application settings from an optional YAML file
// overlaid with environment variables. Env always wins so deployed
// instances can be tuned without shipping a new file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/goccy/go-yaml"
)

// Defaults match the observed behavior of the mobile map screen.
const (
	DefaultRadiusMeters    = 10000.0
	DefaultRefreshSeconds  = 10
	DefaultFetchTimeoutSec = 10
)

// Map configures the proximity map service.
type Map struct {
	// RadiusMeters bounds the proximity snapshot around the reference
	// coordinate.
	RadiusMeters float64 `yaml:"radius_meters"`

	// RefreshSeconds is the period of the directory refresh ticker.
	RefreshSeconds int `yaml:"refresh_seconds"`

	// FetchTimeoutSeconds bounds a single directory fetch. A timed-out
	// fetch counts as a failed fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// OriginLat/OriginLng optionally pin the reference coordinate for
	// deployments without a live location provider. Both unset means the
	// location provider reports "unavailable" and the snapshot stays empty.
	OriginLat *float64 `yaml:"origin_lat"`
	OriginLng *float64 `yaml:"origin_lng"`
}

// RefreshInterval returns the ticker period as a duration.
func (m Map) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshSeconds) * time.Second
}

// FetchTimeout returns the per-fetch deadline as a duration.
func (m Map) FetchTimeout() time.Duration {
	return time.Duration(m.FetchTimeoutSeconds) * time.Second
}

// Config holds all app settings.
type Config struct {
	Port string `yaml:"port"`
	Map  Map    `yaml:"map"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies env overrides and defaults.
//
// Environment variables:
//   - PORT
//   - MAP_RADIUS_METERS
//   - MAP_REFRESH_SECONDS
//   - MAP_FETCH_TIMEOUT_SECONDS
//   - MAP_ORIGIN_LAT / MAP_ORIGIN_LNG
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// No file, env + defaults only.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v, ok := envFloat("MAP_RADIUS_METERS"); ok {
		cfg.Map.RadiusMeters = v
	}
	if v, ok := envInt("MAP_REFRESH_SECONDS"); ok {
		cfg.Map.RefreshSeconds = v
	}
	if v, ok := envInt("MAP_FETCH_TIMEOUT_SECONDS"); ok {
		cfg.Map.FetchTimeoutSeconds = v
	}
	if v, ok := envFloat("MAP_ORIGIN_LAT"); ok {
		cfg.Map.OriginLat = &v
	}
	if v, ok := envFloat("MAP_ORIGIN_LNG"); ok {
		cfg.Map.OriginLng = &v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "5050"
	}
	if cfg.Map.RadiusMeters == 0 {
		cfg.Map.RadiusMeters = DefaultRadiusMeters
	}
	if cfg.Map.RefreshSeconds == 0 {
		cfg.Map.RefreshSeconds = DefaultRefreshSeconds
	}
	if cfg.Map.FetchTimeoutSeconds == 0 {
		cfg.Map.FetchTimeoutSeconds = DefaultFetchTimeoutSec
	}
}

// Validate checks that the loaded settings are usable.
func (c Config) Validate() error {
	if c.Map.RadiusMeters <= 0 {
		return fmt.Errorf("map radius must be positive, got %v", c.Map.RadiusMeters)
	}
	if c.Map.RefreshSeconds <= 0 {
		return fmt.Errorf("map refresh period must be positive, got %d", c.Map.RefreshSeconds)
	}
	if c.Map.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("map fetch timeout must be positive, got %d", c.Map.FetchTimeoutSeconds)
	}
	if (c.Map.OriginLat == nil) != (c.Map.OriginLng == nil) {
		return errors.New("map origin requires both origin_lat and origin_lng")
	}
	if c.Map.OriginLat != nil {
		if !geo.IsValid(*c.Map.OriginLat, *c.Map.OriginLng) {
			return fmt.Errorf("map origin out of range: lat=%v lng=%v", *c.Map.OriginLat, *c.Map.OriginLng)
		}
	}
	return nil
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
