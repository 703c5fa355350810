package persistence

import (
	"context"
	"fmt"

	"github.com/snapvec/snapvec/internal/database"
)

// AutoMigrate creates or updates the database schema.
func AutoMigrate(ctx context.Context, db database.Database) error {
	err := db.Session(ctx).AutoMigrate(
		&EmbeddingModel{},
		&ItemModel{},
		&TagModel{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
