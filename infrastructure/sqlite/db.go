package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

// DB holds one writer connection and a query-only reader pool on the same
// file. sqlite allows a single writer, so every save is serialized on W.
type DB struct {
	WriteSQL *sql.DB
	ReadSQL  *sql.DB
	W        *bun.DB
	R        *bun.DB
	path     string
}

type dbOptions struct {
	readConns   int
	busyTimeout time.Duration
}

type Option func(*dbOptions)

// WithReadConns sizes the reader pool. Each open cart event stream polls
// through it.
func WithReadConns(n int) Option {
	return func(o *dbOptions) {
		if n > 0 {
			o.readConns = n
		}
	}
}

func WithBusyTimeout(d time.Duration) Option {
	return func(o *dbOptions) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// OpenDB opens path, creating its parent directory when missing.
func OpenDB(path string, opts ...Option) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	o := dbOptions{readConns: 8, busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	busy := fmt.Sprint(o.busyTimeout.Milliseconds())
	wsql, err := sql.Open("sqlite3", dsn(path, url.Values{
		"_busy_timeout": {busy},
		"_txlock":       {"immediate"},
	}))
	if err != nil {
		return nil, fmt.Errorf("open write db: %w", err)
	}
	wsql.SetMaxOpenConns(1)
	wsql.SetConnMaxLifetime(15 * time.Minute)

	// The writer creates the file so the read-only pool can open it.
	if err := wsql.Ping(); err != nil {
		_ = wsql.Close()
		return nil, fmt.Errorf("ping write db: %w", err)
	}

	rsql, err := sql.Open("sqlite3", dsn(path, url.Values{
		"_busy_timeout": {busy},
		"_query_only":   {"1"},
		"mode":          {"ro"},
	}))
	if err != nil {
		_ = wsql.Close()
		return nil, fmt.Errorf("open read db: %w", err)
	}
	rsql.SetMaxOpenConns(o.readConns)
	rsql.SetConnMaxIdleTime(5 * time.Minute)
	rsql.SetConnMaxLifetime(15 * time.Minute)

	return &DB{
		WriteSQL: wsql,
		ReadSQL:  rsql,
		W:        bun.NewDB(wsql, sqlitedialect.New()),
		R:        bun.NewDB(rsql, sqlitedialect.New()),
		path:     path,
	}, nil
}

func dsn(path string, params url.Values) string {
	return "file:" + path + "?" + params.Encode()
}

// Path returns the database file.
func (db *DB) Path() string { return db.path }

// Ping checks both handles; it backs /api/local-health.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.WriteSQL == nil || db.ReadSQL == nil {
		return ErrNotOpen
	}
	if err := db.WriteSQL.PingContext(ctx); err != nil {
		return fmt.Errorf("ping write db: %w", err)
	}
	if err := db.ReadSQL.PingContext(ctx); err != nil {
		return fmt.Errorf("ping read db: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	var errs []error
	if db.W != nil {
		errs = append(errs, db.W.Close())
	}
	if db.R != nil {
		errs = append(errs, db.R.Close())
	}
	return errors.Join(errs...)
}
