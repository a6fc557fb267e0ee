// Package persistence provides database storage implementations.
package persistence

import (
	"context"
	"fmt"

	"github.com/aleysapc/docsearch/internal/database"
)

// PreMigrate prepares the database before AutoMigrate. On PostgreSQL it
// installs the pgvector extension so embedding columns can use the vector
// type. It is safe to run repeatedly.
func PreMigrate(ctx context.Context, db database.Database) error {
	if err := db.EnableVector(ctx); err != nil {
		return fmt.Errorf("pre-migrate: %w", err)
	}
	return nil
}

// AutoMigrate runs GORM auto migration for all models.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(
		&CorrespondenceModel{},
		&DocumentModel{},
		&DraftModel{},
		&TaskModel{},
		&JobModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
