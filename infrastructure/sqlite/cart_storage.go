package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"pricescanner/infrastructure/activity"
	"pricescanner/infrastructure/cartstore"
	"pricescanner/models"
)

// DefaultWatchInterval is how often Watch polls for a new revision.
const DefaultWatchInterval = time.Second

// CartStorage keeps cart records in storage_records. Every save bumps the
// record revision and appends an activity_logs row in the same transaction.
type CartStorage struct {
	db       *DB
	trail    *activity.Trail
	interval time.Duration
	log      zerolog.Logger
}

type CartStorageOption func(*CartStorage)

func WithWatchInterval(d time.Duration) CartStorageOption {
	return func(s *CartStorage) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithStorageLogger(log zerolog.Logger) CartStorageOption {
	return func(s *CartStorage) { s.log = log }
}

func NewCartStorage(db *DB, opts ...CartStorageOption) *CartStorage {
	s := &CartStorage{
		db:       db,
		trail:    activity.NewTrail(),
		interval: DefaultWatchInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var rec models.StorageRecord
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&rec).Where("key = ?", key).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cartstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load storage record %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (s *CartStorage) Save(ctx context.Context, key string, data []byte, origin string) error {
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var before []byte
		var prev models.StorageRecord
		err := tx.NewSelect().Model(&prev).Where("key = ?", key).Limit(1).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			before = []byte(prev.Value)
		}

		revision := prev.Revision + 1
		if _, err := tx.ExecContext(ctx, `
INSERT INTO storage_records (key, value, origin, revision, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
  value = excluded.value,
  origin = excluded.origin,
  revision = excluded.revision,
  updated_at = CURRENT_TIMESTAMP`, key, string(data), origin, revision); err != nil {
			return err
		}
		return s.trail.Write(ctx, tx, key, origin, "save", revision, before, data)
	})
	if err != nil {
		return fmt.Errorf("save storage record %s: %w", key, err)
	}
	return nil
}

// Watch polls the record revision and reports every change it observes.
// Several writes between two polls collapse into one Change carrying the
// latest writer.
func (s *CartStorage) Watch(ctx context.Context, key string) (<-chan cartstore.Change, error) {
	last, _, err := s.revision(ctx, key)
	if err != nil {
		return nil, err
	}

	ch := make(chan cartstore.Change, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			rev, origin, err := s.revision(ctx, key)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn().Err(err).Str("key", key).Msg("storage.watch.poll_failed")
				}
				continue
			}
			if rev == last {
				continue
			}
			last = rev
			select {
			case ch <- cartstore.Change{Key: key, Origin: origin}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (s *CartStorage) revision(ctx context.Context, key string) (int64, string, error) {
	var rec models.StorageRecord
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&rec).Column("revision", "origin").Where("key = ?", key).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read revision %s: %w", key, err)
	}
	return rec.Revision, rec.Origin, nil
}

// RecordSummary describes one stored record without its value.
type RecordSummary struct {
	Key       string
	Origin    string
	Revision  int64
	UpdatedAt time.Time
}

// Keys lists stored records whose key starts with prefix.
func (s *CartStorage) Keys(ctx context.Context, prefix string) ([]RecordSummary, error) {
	var recs []models.StorageRecord
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&recs).
			Column("key", "origin", "revision", "updated_at").
			Where("substr(key, 1, ?) = ?", len(prefix), prefix).
			OrderExpr("updated_at DESC, key ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list storage records: %w", err)
	}
	out := make([]RecordSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, RecordSummary{Key: r.Key, Origin: r.Origin, Revision: r.Revision, UpdatedAt: r.UpdatedAt})
	}
	return out, nil
}

// History returns up to limit activity rows for key, newest first.
func (s *CartStorage) History(ctx context.Context, key string, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.ActivityLog
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			Where("storage_key = ?", key).
			OrderExpr("id DESC").
			Limit(limit).
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", key, err)
	}
	return rows, nil
}
