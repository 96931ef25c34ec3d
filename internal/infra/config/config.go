package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Overlap policies for concurrent widget submissions.
const (
	OverlapLastResolved     = "last-resolved"
	OverlapLatestSubmission = "latest-submission"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Weather WeatherConfig `yaml:"weather"`
	Widget  WidgetConfig  `yaml:"widget"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// WeatherConfig contains the upstream weather API settings.
type WeatherConfig struct {
	APIKey    string              `yaml:"apiKey"`
	BaseURL   string              `yaml:"baseUrl"`
	Units     string              `yaml:"units"`
	Timeout   time.Duration       `yaml:"timeout"`
	RateLimit UpstreamLimitConfig `yaml:"rateLimit"`
	Cache     WeatherCacheConfig  `yaml:"cache"`
}

// UpstreamLimitConfig throttles calls made to the weather API.
type UpstreamLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// WeatherCacheConfig controls the optional lookup cache.
type WeatherCacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	ValkeyAddr string        `yaml:"valkeyAddr"`
}

// WidgetConfig controls the rendered widget.
type WidgetConfig struct {
	AlertDuration time.Duration `yaml:"alertDuration"`
	Overlap       string        `yaml:"overlap"`
	SessionTTL    time.Duration `yaml:"sessionTtl"`
	CookieName    string        `yaml:"cookieName"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("WEATHER_BASE_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("WEATHER_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Weather.Timeout = parsed
		}
	}
	if v := os.Getenv("WEATHER_RATE_LIMIT_ENABLED"); v != "" {
		cfg.Weather.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("WEATHER_RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Weather.RateLimit.RPS = parsed
		}
	}
	if v := os.Getenv("WEATHER_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Weather.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("WEATHER_CACHE_ENABLED"); v != "" {
		cfg.Weather.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("WEATHER_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Weather.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("WEATHER_CACHE_VALKEY_ADDR"); v != "" {
		cfg.Weather.Cache.ValkeyAddr = v
	}
	if v := os.Getenv("WIDGET_ALERT_DURATION"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Widget.AlertDuration = parsed
		}
	}
	if v := os.Getenv("WIDGET_OVERLAP"); v != "" {
		cfg.Widget.Overlap = v
	}
	if v := os.Getenv("WIDGET_SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Widget.SessionTTL = parsed
		}
	}
	if v := os.Getenv("WIDGET_COOKIE_NAME"); v != "" {
		cfg.Widget.CookieName = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Units:   "metric",
			Timeout: 10 * time.Second,
			RateLimit: UpstreamLimitConfig{
				Enabled: true,
				RPS:     1,
				Burst:   5,
			},
			Cache: WeatherCacheConfig{
				Enabled: false,
				TTL:     5 * time.Minute,
			},
		},
		Widget: WidgetConfig{
			AlertDuration: 3 * time.Second,
			Overlap:       OverlapLastResolved,
			SessionTTL:    30 * time.Minute,
			CookieName:    "clima_session",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Weather.APIKey) == "" {
		return errors.New("weather.apiKey cannot be empty")
	}
	if strings.TrimSpace(c.Weather.BaseURL) == "" {
		return errors.New("weather.baseUrl cannot be empty")
	}
	if c.Weather.Units != "metric" {
		return errors.New("weather.units must be metric")
	}
	if c.Weather.Timeout <= 0 {
		return errors.New("weather.timeout must be positive")
	}
	if c.Weather.RateLimit.Enabled {
		if c.Weather.RateLimit.RPS <= 0 {
			return errors.New("weather.rateLimit.rps must be positive")
		}
		if c.Weather.RateLimit.Burst <= 0 {
			return errors.New("weather.rateLimit.burst must be positive")
		}
	}
	if c.Weather.Cache.Enabled && c.Weather.Cache.TTL <= 0 {
		return errors.New("weather.cache.ttl must be positive when the cache is enabled")
	}
	if c.Widget.AlertDuration <= 0 {
		return errors.New("widget.alertDuration must be positive")
	}
	switch c.Widget.Overlap {
	case OverlapLastResolved, OverlapLatestSubmission:
	default:
		return fmt.Errorf("widget.overlap must be %q or %q", OverlapLastResolved, OverlapLatestSubmission)
	}
	if c.Widget.SessionTTL <= 0 {
		return errors.New("widget.sessionTtl must be positive")
	}
	if strings.TrimSpace(c.Widget.CookieName) == "" {
		return errors.New("widget.cookieName cannot be empty")
	}
	return nil
}
