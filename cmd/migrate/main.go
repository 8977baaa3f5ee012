package main

import (
	"marketplace/internal/config" // Custom import path (Config)
	"marketplace/internal/db"     // Custom import path (Database)
	"marketplace/internal/store"  // Custom import path (Store)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	s, err := store.Open(cfg.DSN()) // Connect using the configured DSN
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	defer s.Close()
	if err := db.Migrate(s.DB()); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
}
