// Package db opens PostgreSQL connection pools for result persistence.
package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	// URL, when set, is used as the connection string and the discrete
	// fields below are ignored.
	URL string

	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config for a local database. A CLI run holds
// at most a couple of connections.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           5432,
		Database:       "attendance",
		User:           "attend",
		SSLMode:        "prefer",
		MaxConns:       2,
		ConnectTimeout: 10 * time.Second,
	}
}

// ApplyEnv overlays environment variables onto c.
// Environment variables:
//   - ATTEND_PG_URL: full connection string
//   - ATTEND_PG_HOST, ATTEND_PG_PORT, ATTEND_PG_DATABASE
//   - ATTEND_PG_USER, ATTEND_PG_PASSWORD, ATTEND_PG_SSLMODE
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ATTEND_PG_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("ATTEND_PG_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("ATTEND_PG_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("ATTEND_PG_DATABASE"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("ATTEND_PG_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("ATTEND_PG_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("ATTEND_PG_SSLMODE"); v != "" {
		c.SSLMode = v
	}
}

// ConnectionString builds a PostgreSQL connection string from the config.
func (c *Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns the connection string with the password masked.
func (c *Config) Redacted() string {
	u, err := url.Parse(c.ConnectionString())
	if err != nil {
		return "<unparseable connection string>"
	}
	return u.Redacted()
}

// Validate checks if the config has required fields set.
func (c *Config) Validate() error {
	if c.URL != "" {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("max connections must be positive, got %d", c.MaxConns)
	}
	return nil
}

// Connect creates a new connection pool and pings it.
// The caller is responsible for calling pool.Close() when done.
func Connect(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// ConnectWithRetry calls Connect up to maxAttempts times.
func ConnectWithRetry(ctx context.Context, cfg *Config, maxAttempts int, retryDelay time.Duration) (*pgxpool.Pool, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pool, err := Connect(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, lastErr)
}

// Close closes pool if it is not nil.
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
