package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "migrations")
	if err := ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestWithWriteTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO storage_records (key, value, origin, revision) VALUES (?, ?, ?, 1)`, "rollback-key", "[]", "test"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got: %v", err)
	}

	var count int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM storage_records WHERE key = ?`, "rollback-key").Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count record: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to remove insert, count=%d", count)
	}
}

func TestWithWriteTxCommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)

	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO storage_records (key, value, origin, revision) VALUES (?, ?, ?, 1)`, "commit-key", "[]", "test")
		return err
	})
	if err != nil {
		t.Fatalf("write tx failed: %v", err)
	}

	var count int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM storage_records WHERE key = ?`, "commit-key").Scan(ctx, &count)
	})
	if err != nil {
		t.Fatalf("count record: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected committed insert, count=%d", count)
	}
}

func TestWithReadTxRejectsWrite(t *testing.T) {
	db := openTestDB(t)

	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO storage_records (key, value, origin, revision) VALUES (?, ?, ?, 1)`, "read-only-key", "[]", "test")
		return err
	})
	var count int
	if err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM storage_records WHERE key = ?`, "read-only-key").Scan(ctx, &count)
	}); err != nil {
		t.Fatalf("count record: %v", err)
	}
	if err == nil && count > 0 {
		t.Fatalf("expected write in read tx to be blocked; write succeeded")
	}
}

func TestTxOnZeroDBReturnsErrNotOpen(t *testing.T) {
	var db *DB
	noop := func(context.Context, bun.Tx) error { return nil }
	if err := db.WithWriteTx(context.Background(), noop); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen from write tx, got %v", err)
	}
	if err := (&DB{}).WithReadTx(context.Background(), noop); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen from read tx, got %v", err)
	}
}

func TestOpenDBCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "carts", "pricescanner.db")
	db, err := OpenDB(dbPath, WithReadConns(2), WithBusyTimeout(time.Second))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if db.Path() != dbPath {
		t.Fatalf("expected path %s, got %s", dbPath, db.Path())
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
