package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-admission/internal/models"
)

// Migrate creates the admission schema if it does not exist yet.
func Migrate(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Event)(nil),
		(*models.Guest)(nil),
		(*models.Invitation)(nil),
		(*models.Scan)(nil),
	}

	for _, table := range tables {
		_, err := db.NewCreateTable().Model(table).IfNotExists().Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}
