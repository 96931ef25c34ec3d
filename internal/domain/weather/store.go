package weather

import (
	"context"
	"time"
)

// Store defines the contract for the optional lookup cache.
type Store interface {
	Get(ctx context.Context, key string) (Report, bool, error)
	Save(ctx context.Context, key string, report Report, ttl time.Duration) error
}
