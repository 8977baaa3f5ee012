package db

import (
	"fmt"                         // Error wrapping
	"marketplace/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table the marketplace owns
func Models() []any {
	return []any{&domain.User{}, &domain.Product{}, &domain.Order{}}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("%w: migrate: %w", domain.ErrPersistence, err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
