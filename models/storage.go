package models

import (
	"time"

	"github.com/uptrace/bun"
)

// StorageRecord is one durable client-storage entry, e.g. a device cart.
type StorageRecord struct {
	bun.BaseModel `bun:"table:storage_records,alias:sr"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	Origin    string    `bun:"origin,notnull"`
	Revision  int64     `bun:"revision,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ActivityLog captures immutable write history for storage records.
type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	StorageKey string    `bun:"storage_key,notnull"`
	Origin     string    `bun:"origin,notnull"`
	Action     string    `bun:"action,notnull"`
	Revision   int64     `bun:"revision,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
