package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	"github.com/yanqian/clima-widget/internal/domain/widget"
	"github.com/yanqian/clima-widget/internal/infra/config"
	"github.com/yanqian/clima-widget/internal/infra/openweather"
	"github.com/yanqian/clima-widget/internal/infra/weathercache"
)

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{
		CacheEnabled: cfg.Weather.Cache.Enabled,
		CacheTTL:     cfg.Weather.Cache.TTL,
	}
}

func provideWidgetConfig(cfg *config.Config) widget.Config {
	return widget.Config{
		AlertDuration: cfg.Widget.AlertDuration,
		Overlap:       cfg.Widget.Overlap,
		SessionTTL:    cfg.Widget.SessionTTL,
	}
}

func provideWeatherClient(cfg *config.Config, logger *slog.Logger) weather.Client {
	client := openweather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Units, cfg.Weather.Timeout)
	if !cfg.Weather.RateLimit.Enabled {
		return client
	}
	logger.Info("weather client rate limited", "rps", cfg.Weather.RateLimit.RPS, "burst", cfg.Weather.RateLimit.Burst)
	return openweather.NewRateLimitedClient(client, cfg.Weather.RateLimit.RPS, cfg.Weather.RateLimit.Burst)
}

func provideWeatherStore(cfg *config.Config, logger *slog.Logger) weather.Store {
	if !cfg.Weather.Cache.Enabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.Weather.Cache.ValkeyAddr)
	if addr == "" {
		logger.Info("weather cache valkey addr not set, using memory store")
		return weathercache.NewMemoryStore()
	}
	opt, err := buildValkeyOptions(addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return weathercache.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return weathercache.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return weathercache.NewMemoryStore()
	}
	logger.Info("weather valkey cache enabled", "addr", addr)
	return weathercache.NewValkeyStore(client, "weather")
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
