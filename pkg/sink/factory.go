package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/attend-cli/config"
	"github.com/otherjamesbrown/attend-cli/credentials"
	"github.com/otherjamesbrown/attend-cli/pkg/db"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
)

// connectTimeout bounds the initial ping of network sinks.
const connectTimeout = 10 * time.Second

// Deps carries what New needs beyond configuration.
type Deps struct {
	Stdout  io.Writer
	Secrets credentials.Store
	Logger  logging.Logger

	// Registerer, when set, receives connection pool metrics.
	Registerer prometheus.Registerer
}

// New opens the sink selected by cfg.Type. Failures are returned as
// *aterrors.SinkError.
func New(ctx context.Context, cfg config.SinkConfig, deps Deps) (Sink, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}

	switch cfg.Type {
	case config.SinkStdout, "":
		return NewFileSink(StdoutPath, deps.Stdout), nil
	case config.SinkFile:
		path, err := config.ExpandPath(cfg.Path)
		if err != nil {
			return nil, &aterrors.SinkError{Sink: "file", Cause: err}
		}
		return NewFileSink(path, deps.Stdout), nil
	case config.SinkPostgres:
		s, err := openPostgres(ctx, cfg, deps)
		if err != nil {
			return nil, &aterrors.SinkError{Sink: "postgres", Cause: err}
		}
		return s, nil
	case config.SinkRedis:
		s, err := openRedis(ctx, cfg, deps)
		if err != nil {
			return nil, &aterrors.SinkError{Sink: "redis", Cause: err}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown sink type %q", aterrors.ErrInvalidConfig, cfg.Type)
	}
}

func secret(deps Deps, name string) (string, error) {
	if deps.Secrets == nil {
		return "", nil
	}
	return credentials.Lookup(deps.Secrets, name)
}

func openPostgres(ctx context.Context, cfg config.SinkConfig, deps Deps) (*PostgresSink, error) {
	dbCfg := db.DefaultConfig()
	pg := cfg.Postgres
	dbCfg.URL = pg.URL
	if pg.Host != "" {
		dbCfg.Host = pg.Host
	}
	if pg.Port != 0 {
		dbCfg.Port = pg.Port
	}
	if pg.Database != "" {
		dbCfg.Database = pg.Database
	}
	if pg.User != "" {
		dbCfg.User = pg.User
	}
	if pg.SSLMode != "" {
		dbCfg.SSLMode = pg.SSLMode
	}

	password, err := secret(deps, credentials.SecretPostgresPassword)
	if err != nil {
		return nil, err
	}
	dbCfg.Password = password
	dbCfg.ApplyEnv()

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := db.Connect(cctx, dbCfg)
	if err != nil {
		return nil, err
	}
	deps.Logger.Debug("Connected to postgres", logging.F("dsn", dbCfg.Redacted()))

	if deps.Registerer != nil {
		if _, err := db.RegisterPoolStats(deps.Registerer, pool, "attend"); err != nil {
			deps.Logger.Warn("Pool metrics unavailable", logging.Err(err))
		}
	}

	s, err := NewPostgresSink(pool, cfg.Table, pool.Close)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.EnsureSchema(cctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, cfg config.SinkConfig, deps Deps) (*RedisSink, error) {
	password, err := secret(deps, credentials.SecretRedisPassword)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: password,
		DB:       cfg.Redis.DB,
	})

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(cctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}
	deps.Logger.Debug("Connected to redis", logging.F("addr", cfg.Redis.Addr))

	return NewRedisSink(client, cfg.Channel, cfg.KeyPrefix, cfg.KeyTTL), nil
}
