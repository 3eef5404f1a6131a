// Package config loads engine settings from an optional YAML file with
// environment overrides. Environment wins so deployments can keep one file
// and vary per instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"fleetroute/internal/cache"
	"fleetroute/internal/deviation"
	"fleetroute/internal/throttle"
)

type Config struct {
	Port string

	GoogleMapsAPIKey string
	ProviderTimeout  time.Duration
	ProviderQPS      float64

	RedisURL    string
	DatabaseURL string

	CacheTTL       time.Duration
	ThrottleWindow time.Duration
	ThrottleLimit  int

	DeviationThresholdMeters float64
}

// fileConfig is the YAML shape. Durations are strings ("10m", "30s") and
// numerics are pointers so absent keys do not clobber defaults.
type fileConfig struct {
	Port                     string   `yaml:"port"`
	GoogleMapsAPIKey         string   `yaml:"googleMapsApiKey"`
	ProviderTimeout          string   `yaml:"providerTimeout"`
	ProviderQPS              *float64 `yaml:"providerQps"`
	RedisURL                 string   `yaml:"redisUrl"`
	DatabaseURL              string   `yaml:"databaseUrl"`
	CacheTTL                 string   `yaml:"cacheTtl"`
	ThrottleWindow           string   `yaml:"throttleWindow"`
	ThrottleLimit            *int     `yaml:"throttleLimit"`
	DeviationThresholdMeters *float64 `yaml:"deviationThresholdMeters"`
}

func defaults() Config {
	return Config{
		Port:                     "8080",
		ProviderTimeout:          10 * time.Second,
		ProviderQPS:              10,
		CacheTTL:                 cache.DefaultTTL,
		ThrottleWindow:           throttle.DefaultWindow,
		ThrottleLimit:            throttle.DefaultLimit,
		DeviationThresholdMeters: deviation.DefaultThresholdMeters,
	}
}

// Load reads path (skipped when empty or absent) and applies environment
// overrides on top of defaults.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := applyFile(&cfg, fc); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) error {
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.GoogleMapsAPIKey != "" {
		cfg.GoogleMapsAPIKey = fc.GoogleMapsAPIKey
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
	}
	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	if fc.ProviderQPS != nil {
		cfg.ProviderQPS = *fc.ProviderQPS
	}
	if fc.ThrottleLimit != nil {
		cfg.ThrottleLimit = *fc.ThrottleLimit
	}
	if fc.DeviationThresholdMeters != nil {
		cfg.DeviationThresholdMeters = *fc.DeviationThresholdMeters
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{fc.ProviderTimeout, &cfg.ProviderTimeout, "providerTimeout"},
		{fc.CacheTTL, &cfg.CacheTTL, "cacheTtl"},
		{fc.ThrottleWindow, &cfg.ThrottleWindow, "throttleWindow"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.GoogleMapsAPIKey, "GOOGLE_MAPS_API_KEY")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setDuration(&cfg.ProviderTimeout, "PROVIDER_TIMEOUT")
	setFloat(&cfg.ProviderQPS, "PROVIDER_QPS")
	setDuration(&cfg.CacheTTL, "CACHE_TTL")
	setDuration(&cfg.ThrottleWindow, "THROTTLE_WINDOW")
	setInt(&cfg.ThrottleLimit, "THROTTLE_LIMIT")
	setFloat(&cfg.DeviationThresholdMeters, "DEVIATION_THRESHOLD_METERS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
