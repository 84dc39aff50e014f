package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

const (
	dialTimeout   = 5 * time.Second
	dialAttempts  = 3
	dialBackoff   = time.Second
	schemaVersion = 1

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"sslmode"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

// dsn renders a postgres:// URL; extra query parameters are appended as given.
func (c DBConfig) dsn(params url.Values) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	return u.String()
}

func (c DBConfig) sslMode() string {
	if c.SSLMode != "" {
		return c.SSLMode
	}
	if env := os.Getenv("PG_SSLMODE"); env != "" {
		return env
	}
	return "disable"
}

// DB owns the bun handle every repository runs on. On PostgreSQL it also
// keeps a pgx pool for health checks and session setup.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

// Open picks the driver named in cfg.
func Open(ctx context.Context, cfg DBConfig) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres, "":
		return New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// New connects to PostgreSQL.
func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	if err := waitForServer(ctx, cfg); err != nil {
		return nil, err
	}

	pc, err := pgxpool.ParseConfig(cfg.dsn(url.Values{
		"sslmode":         {cfg.sslMode()},
		"connect_timeout": {"5"},
	}))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	tunePool(pc, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(cfg)}, nil
}

func tunePool(pc *pgxpool.Config, cfg DBConfig) {
	if cfg.PoolSize > 0 {
		pc.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		pc.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}
}

// waitForServer probes the TCP port a few times before the pool is built so
// a container that is still starting gets a chance to come up. tcp4 is tried
// ahead of tcp6 unless DB_DIAL_FORCE_IPV6=1.
func waitForServer(ctx context.Context, cfg DBConfig) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	networks := []string{"tcp4", "tcp6"}
	if os.Getenv("DB_DIAL_FORCE_IPV6") == "1" {
		networks = []string{"tcp6"}
	}
	dialer := net.Dialer{Timeout: dialTimeout}

	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		for _, network := range networks {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err == nil {
				return conn.Close()
			}
			lastErr = err
		}
		slog.Warn("Postgres not reachable yet",
			slog.String("type", "db"),
			slog.String("addr", addr),
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return fmt.Errorf("postgres at %s unreachable after %d attempts: %w", addr, dialAttempts, lastErr)
}

func newBunDB(cfg DBConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.dsn(url.Values{"sslmode": {cfg.sslMode()}})),
	))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	bunDB.AddQueryHook(QueryHook{})
	return bunDB
}

// OpenSQLite opens a file database. A single connection is used so every
// transaction is serialized by database/sql rather than SQLITE_BUSY retries.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = "botim.db"
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	sqldb, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	bunDB.AddQueryHook(QueryHook{})
	return &DB{bunDB: bunDB}, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Postgres() bool {
	return db.pool != nil
}

// ExecWithLog runs a raw statement; the query hook reports it.
func (db *DB) ExecWithLog(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.bunDB.ExecContext(ctx, query, args...)
}

// Ping is the readiness probe for the ops server.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return fmt.Errorf("pool: %w", err)
		}
	}
	return db.bunDB.PingContext(ctx)
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// checkEncoding warns when PostgreSQL is not UTF8; display names and quiz
// text are stored verbatim and mostly non-ASCII.
func (db *DB) checkEncoding(ctx context.Context) error {
	if db.pool == nil {
		return nil
	}

	var enc string
	if err := db.pool.QueryRow(ctx, "SHOW server_encoding").Scan(&enc); err != nil {
		return fmt.Errorf("read server_encoding: %w", err)
	}
	if enc != "UTF8" {
		slog.Warn("Server encoding is not UTF8",
			slog.String("type", "db"),
			slog.String("encoding", enc))
	}
	return nil
}
