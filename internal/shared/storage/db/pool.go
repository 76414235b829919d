package db

import (
	"database/sql"
	"time"

	"recruit-backend/internal/shared/telemetry"
)

// Options sizes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Profile names the kind of process that owns a pool.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Every concurrent Lambda invocation owns its own pool, so that profile
// stays at two connections.
var profiles = map[Profile]Options{
	ProfileServer:  {MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: 15 * time.Minute, ConnMaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
}

// DefaultOptions returns the pool defaults for p. Unknown profiles get the
// server defaults.
func DefaultOptions(p Profile) Options {
	if opts, ok := profiles[p]; ok {
		return opts
	}
	return profiles[ProfileServer]
}

// Override layers the positive fields of over onto base.
func Override(base, over Options) Options {
	pick := func(b, o int) int {
		if o > 0 {
			return o
		}
		return b
	}
	pickDur := func(b, o time.Duration) time.Duration {
		if o > 0 {
			return o
		}
		return b
	}
	return Options{
		MaxOpenConns:    pick(base.MaxOpenConns, over.MaxOpenConns),
		MaxIdleConns:    pick(base.MaxIdleConns, over.MaxIdleConns),
		ConnMaxLifetime: pickDur(base.ConnMaxLifetime, over.ConnMaxLifetime),
		ConnMaxIdleTime: pickDur(base.ConnMaxIdleTime, over.ConnMaxIdleTime),
		PingTimeout:     pickDur(base.PingTimeout, over.PingTimeout),
	}
}

func (o Options) apply(sqlDB *sql.DB) {
	o = Override(profiles[ProfileServer], o)
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(o.ConnMaxIdleTime)
}

// LogPoolStats writes the pool counters under msg.
func LogPoolStats(sqlDB *sql.DB, msg string) {
	s := sqlDB.Stats()
	telemetry.Info(msg, map[string]any{
		"max_open": s.MaxOpenConnections,
		"open":     s.OpenConnections,
		"in_use":   s.InUse,
		"idle":     s.Idle,
		"waits":    s.WaitCount,
	})
}
