package activity

import (
	"context"

	"github.com/uptrace/bun"

	"pricescanner/models"
)

// Trail writes storage history rows inside the caller transaction.
type Trail struct{}

func NewTrail() *Trail {
	return &Trail{}
}

func (t *Trail) Write(ctx context.Context, tx bun.Tx, key, origin, action string, revision int64, before, after []byte) error {
	row := &models.ActivityLog{
		StorageKey: key,
		Origin:     origin,
		Action:     action,
		Revision:   revision,
		BeforeJSON: string(before),
		AfterJSON:  string(after),
	}
	_, err := tx.NewInsert().Model(row).Exec(ctx)
	return err
}
