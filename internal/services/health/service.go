package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports the reachability of backing services.
type Service struct {
	DB    Pinger
	Redis redis.UniversalClient
}

// NewService constructs a health service. Nil dependencies are skipped.
func NewService(db Pinger, rdb redis.UniversalClient) *Service {
	return &Service{DB: db, Redis: rdb}
}

// Status returns one entry per configured dependency plus "ok", which is true
// only when every check passed.
func (s *Service) Status(ctx context.Context) map[string]bool {
	out := map[string]bool{"ok": true}
	if s == nil {
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if s.DB != nil {
		out["database"] = s.DB.PingContext(ctx) == nil
		out["ok"] = out["ok"] && out["database"]
	}
	if s.Redis != nil {
		out["redis"] = s.Redis.Ping(ctx).Err() == nil
		out["ok"] = out["ok"] && out["redis"]
	}
	return out
}
