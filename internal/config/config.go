// Package config provides file and environment configuration for the
// tracker daemon.
//
// Configuration is layered: Default supplies every value, an optional
// YAML file overrides it, and ISSTRACKER_* environment variables
// override the file. Invalid environment values are logged and skipped
// rather than failing startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// Config is the full daemon configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Ephemeris EphemerisConfig `yaml:"ephemeris"`
	Track     TrackConfig     `yaml:"track"`
	Stream    StreamConfig    `yaml:"stream"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
}

// HTTPConfig contains listener settings.
type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	TrustProxy bool   `yaml:"trust_proxy"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// AuthConfig contains bearer-token settings. Token is required when
// Enabled is true.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// EphemerisConfig controls where the OEM document comes from and how
// raw copies are kept on disk. File is an optional local document used
// as a last resort when both the disk cache and the fetch fail.
type EphemerisConfig struct {
	SourceURL     string `yaml:"source_url"`
	File          string `yaml:"file"`
	CacheDir      string `yaml:"cache_dir"`
	CacheMaxFiles int    `yaml:"cache_max_files"`
	MaxAgeSeconds int    `yaml:"max_age_seconds"`
	FetchOnStart  bool   `yaml:"fetch_on_start"`
}

// MaxAge returns the age beyond which a cached document is considered
// stale.
func (c EphemerisConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// TrackConfig controls ground-track building.
type TrackConfig struct {
	Workers int `yaml:"workers"`
}

// StreamConfig controls the SSE position feed.
type StreamConfig struct {
	IntervalSeconds    int `yaml:"interval_seconds"`
	KeepaliveSeconds   int `yaml:"keepalive_seconds"`
	MaxConcurrentPerIP int `yaml:"max_concurrent_per_ip"`
}

// Interval returns the cadence of position events.
func (c StreamConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Keepalive returns the idle keepalive interval.
func (c StreamConfig) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveSeconds) * time.Second
}

// GeocoderConfig controls the reverse geocoder.
type GeocoderConfig struct {
	RadiusKm float64 `yaml:"radius_km"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Ephemeris: EphemerisConfig{
			SourceURL:     oem.DefaultSourceURL,
			CacheDir:      "/tmp/isstracker/oem",
			CacheMaxFiles: 5,
			MaxAgeSeconds: 86400,
			FetchOnStart:  true,
		},
		Track: TrackConfig{
			Workers: runtime.NumCPU(),
		},
		Stream: StreamConfig{
			IntervalSeconds:    5,
			KeepaliveSeconds:   30,
			MaxConcurrentPerIP: 10,
		},
		Geocoder: GeocoderConfig{
			RadiusKm: 300,
		},
	}
}

// Load reads the configuration file at path, layered over Default.
// Keys absent from the file keep their default values. An empty path
// returns Default without touching disk; a non-empty path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports configuration that cannot be corrected at runtime.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("auth token is required when auth is enabled")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// ApplyEnv overlays ISSTRACKER_* environment variables on c. Values
// that fail to parse are logged and the current value kept.
func (c *Config) ApplyEnv(logger *slog.Logger) {
	if v := os.Getenv("ISSTRACKER_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	applyBool(logger, "ISSTRACKER_TRUST_PROXY", &c.HTTP.TrustProxy)

	if v := os.Getenv("ISSTRACKER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	applyBool(logger, "ISSTRACKER_AUTH_ENABLED", &c.Auth.Enabled)
	if v := os.Getenv("ISSTRACKER_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}

	if v := os.Getenv("ISSTRACKER_SOURCE_URL"); v != "" {
		c.Ephemeris.SourceURL = v
	}
	if v := os.Getenv("ISSTRACKER_EPHEMERIS_FILE"); v != "" {
		c.Ephemeris.File = v
	}
	if v := os.Getenv("ISSTRACKER_CACHE_DIR"); v != "" {
		c.Ephemeris.CacheDir = v
	}
	applyPositiveInt(logger, "ISSTRACKER_CACHE_MAX_FILES", &c.Ephemeris.CacheMaxFiles)
	applyPositiveInt(logger, "ISSTRACKER_MAX_AGE", &c.Ephemeris.MaxAgeSeconds)
	applyBool(logger, "ISSTRACKER_FETCH_ON_START", &c.Ephemeris.FetchOnStart)

	applyPositiveInt(logger, "ISSTRACKER_TRACK_WORKERS", &c.Track.Workers)

	applyPositiveInt(logger, "ISSTRACKER_STREAM_INTERVAL", &c.Stream.IntervalSeconds)
	applyPositiveInt(logger, "ISSTRACKER_STREAM_KEEPALIVE", &c.Stream.KeepaliveSeconds)
	applyPositiveInt(logger, "ISSTRACKER_STREAM_MAX_CONCURRENT", &c.Stream.MaxConcurrentPerIP)

	if v := os.Getenv("ISSTRACKER_GEOCODER_RADIUS_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid ISSTRACKER_GEOCODER_RADIUS_KM value, keeping current", "value", v)
		} else {
			c.Geocoder.RadiusKm = f
		}
	}
}

func applyBool(logger *slog.Logger, name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid boolean value, keeping current", "env", name, "value", v)
		return
	}
	*dst = b
}

func applyPositiveInt(logger *slog.Logger, name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid positive integer value, keeping current", "env", name, "value", v)
		return
	}
	*dst = n
}
