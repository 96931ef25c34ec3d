package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/clima-widget/pkg/errors"
)

// Service resolves current conditions for a city/country pair.
type Service interface {
	Lookup(ctx context.Context, q Query) (Report, error)
}

// Client issues the single upstream request for a query.
type Client interface {
	Fetch(ctx context.Context, q Query) (Report, error)
}

type service struct {
	cfg    Config
	client Client
	store  Store
	logger *slog.Logger
}

// NewService wires up the weather domain. store may be nil when caching is disabled.
func NewService(cfg Config, client Client, store Store, logger *slog.Logger) Service {
	if !cfg.CacheEnabled {
		store = nil
	}
	return &service{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With("component", "weather.service"),
	}
}

func (s *service) Lookup(ctx context.Context, q Query) (Report, error) {
	q = Normalize(q)
	if q.City == "" || q.Country == "" {
		return Report{}, apperrors.Wrap(apperrors.CodeInvalidInput, "city and country are required", nil)
	}

	key := CacheKey(q)
	if s.store != nil {
		if cached, ok, err := s.store.Get(ctx, key); err != nil {
			s.logger.Warn("weather cache read failed", "key", key, "error", err)
		} else if ok {
			s.logger.Debug("weather cache hit", "key", key)
			return cached, nil
		}
	}

	report, err := s.client.Fetch(ctx, q)
	if apperrors.IsCode(err, apperrors.CodeRateLimited) {
		s.logger.Warn("weather lookup throttled", "location", q.Location(), "error", err)
		return Report{}, err
	}
	if err != nil {
		return Report{}, apperrors.Wrap(apperrors.CodeTransportError, "weather request failed", err)
	}
	if report.StatusCode != StatusOK {
		s.logger.Info("weather location not found", "location", q.Location(), "cod", report.StatusCode)
		return Report{}, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("location not found (cod=%d)", report.StatusCode), nil)
	}
	s.logger.Info("weather report fetched", "location", q.Location(), "city", report.City)

	if s.store != nil {
		if err := s.store.Save(ctx, key, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("weather cache write failed", "key", key, "error", err)
		}
	}
	return report, nil
}

// Normalize trims surrounding whitespace from both fields.
func Normalize(q Query) Query {
	return Query{
		City:    strings.TrimSpace(q.City),
		Country: strings.TrimSpace(q.Country),
	}
}

// CacheKey builds the case-insensitive cache key for a query.
func CacheKey(q Query) string {
	return strings.ToLower(q.City) + "," + strings.ToLower(q.Country)
}
