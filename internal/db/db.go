package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"employee-service/internal/config"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pingTimeout = 5 * time.Second

// Pool defaults applied when the config leaves a value at zero.
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
)

// New opens the employee database described by cfg and tunes its pool.
func New(cfg config.DatabaseConfig) (*bun.DB, error) {
	db, err := NewWithDSN(DSN(cfg))
	if err != nil {
		return nil, err
	}
	configurePool(db.DB, cfg)
	return db, nil
}

// DSN renders cfg as a postgres:// URL. Credentials are escaped.
func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// NewWithDSN connects and pings; tests pass the container DSN here.
func NewWithDSN(dsn string) (*bun.DB, error) {
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected")
	return db, nil
}

func configurePool(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	maxOpen := orDefault(cfg.MaxOpenConns, defaultMaxOpenConns)
	maxIdle := orDefault(cfg.MaxIdleConns, defaultMaxIdleConns)
	lifetime := seconds(cfg.ConnMaxLifetime, defaultConnMaxLifetime)
	idleTime := seconds(cfg.ConnMaxIdleTime, defaultConnMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(idleTime)

	slog.Info("database pool configured",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
		"conn_max_lifetime", lifetime,
		"conn_max_idle_time", idleTime,
	)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func seconds(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func Close(db *bun.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// RunMigrations creates the tables for models that do not exist yet.
func RunMigrations(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	slog.Info("database migrations completed", "tables", len(models))
	return nil
}
