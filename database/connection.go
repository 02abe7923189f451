package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const applicationName = "mondesavoir"

// DB is the shared pgx pool behind the repositories and the health check
type DB struct {
	*pgxpool.Pool
}

// PoolOption tunes the pool before it is opened
type PoolOption func(*pgxpool.Config)

// WithMaxConns caps the pool size. Zero keeps the pgx default.
func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithHealthCheckPeriod sets how often idle connections are checked
func WithHealthCheckPeriod(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.HealthCheckPeriod = d
		}
	}
}

// newPoolConfig parses the URL and applies session defaults: UTC timestamps
// and an application_name that identifies this service in pg_stat_activity.
func newPoolConfig(databaseURL string, opts ...PoolOption) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL for %s pool: %w", applicationName, err)
	}

	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	if config.ConnConfig.RuntimeParams["application_name"] == "" {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	for _, opt := range opts {
		opt(config)
	}
	return config, nil
}

// NewConnection opens the pool and verifies it with a ping
func NewConnection(ctx context.Context, databaseURL string, opts ...PoolOption) (*DB, error) {
	config, err := newPoolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", applicationName, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s pool cannot reach %s:%d: %w",
			applicationName, config.ConnConfig.Host, config.ConnConfig.Port, err)
	}

	log.WithFields(log.Fields{
		"host":     config.ConnConfig.Host,
		"database": config.ConnConfig.Database,
		"maxConns": config.MaxConns,
	}).Info("Database pool ready")

	return &DB{Pool: pool}, nil
}

// Close closes the pool
func (db *DB) Close() {
	db.Pool.Close()
}
